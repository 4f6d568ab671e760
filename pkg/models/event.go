package models

// Event is a recurring activity scraped from the source site. The ID is
// derived from the event's canonical URL and is expected to be stable across
// scrapes of the same activity.
type Event struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Date        string `yaml:"date" json:"date"`
	Time        string `yaml:"time,omitempty" json:"time,omitempty"`
	Type        string `yaml:"type" json:"type"`
	Description string `yaml:"description" json:"description"`
	Speaker     string `yaml:"speaker,omitempty" json:"speaker,omitempty"`
	Image       string `yaml:"image,omitempty" json:"image,omitempty"`
	URL         string `yaml:"url" json:"url"`
}

// Transition is the animation used when a scene enters.
type Transition string

const (
	TransitionFade      Transition = "fade"
	TransitionSlideLeft Transition = "slide-left"
	TransitionSlideUp   Transition = "slide-up"
	TransitionZoom      Transition = "zoom"
	TransitionCut       Transition = "cut"
)

// Scene is one timed text segment of a promo video script.
type Scene struct {
	ID              string     `yaml:"id" json:"id"`
	Text            string     `yaml:"text" json:"text"`
	Subtext         string     `yaml:"subtext,omitempty" json:"subtext,omitempty"`
	Duration        float64    `yaml:"duration" json:"duration"`
	FontSize        int        `yaml:"font_size" json:"fontSize"`
	FontColor       string     `yaml:"font_color" json:"fontColor"`
	BackgroundColor string     `yaml:"background_color" json:"backgroundColor"`
	Transition      Transition `yaml:"transition" json:"transition"`
}

// TotalDuration returns the summed duration of all scenes in seconds.
func TotalDuration(scenes []Scene) float64 {
	var total float64
	for _, s := range scenes {
		total += s.Duration
	}
	return total
}
