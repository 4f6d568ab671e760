package models

import "fmt"

// Phase is the campaign stage of an event relative to its date.
type Phase string

const (
	PhaseAwareness Phase = "awareness"
	PhaseReminder  Phase = "reminder"
	PhaseUrgency   Phase = "urgency"
	PhaseLastCall  Phase = "last-call"
)

// AllPhases lists every phase ordered from furthest to closest to the event.
var AllPhases = []Phase{PhaseAwareness, PhaseReminder, PhaseUrgency, PhaseLastCall}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseAwareness, PhaseReminder, PhaseUrgency, PhaseLastCall:
		return true
	}
	return false
}

// ParsePhase converts a string into a Phase, rejecting unknown values.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown phase %q", s)
	}
	return p, nil
}

// Format is the target aspect ratio of a rendered video.
type Format string

const (
	Format4x5  Format = "4:5"
	Format9x16 Format = "9:16"
	Format1x1  Format = "1:1"
	Format16x9 Format = "16:9"
)

// Dimensions is a pixel size.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FormatDimensions maps each format to its output resolution.
var FormatDimensions = map[Format]Dimensions{
	Format4x5:  {Width: 864, Height: 1080},
	Format9x16: {Width: 1080, Height: 1920},
	Format1x1:  {Width: 1080, Height: 1080},
	Format16x9: {Width: 1920, Height: 1080},
}

// PhaseProfile is the fixed format and style used for posts in a phase.
type PhaseProfile struct {
	Format Format
	Style  string
}

var phaseProfiles = map[Phase]PhaseProfile{
	PhaseAwareness: {Format: Format9x16, Style: "Informational, topic teaser"},
	PhaseReminder:  {Format: Format4x5, Style: "Benefits, speaker highlight"},
	PhaseUrgency:   {Format: Format9x16, Style: "Nur noch X Plaetze - urgency"},
	PhaseLastCall:  {Format: Format4x5, Style: "Final CTA - last chance to register"},
}

// ProfileFor returns the posting profile of a phase. Unknown phases get the
// awareness profile.
func ProfileFor(p Phase) PhaseProfile {
	if profile, ok := phaseProfiles[p]; ok {
		return profile
	}
	return phaseProfiles[PhaseAwareness]
}

// ScheduledUnit is a decision to attempt one post for one event today. It is
// created fresh on each run and never persisted.
type ScheduledUnit struct {
	Event          Event
	Phase          Phase
	Format         Format
	Style          string
	DaysUntilEvent int
}
