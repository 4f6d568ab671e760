package core

import (
	"context"
	"strings"

	"github.com/valter-silva-au/event-promo/pkg/models"
)

// EventSource lists the events currently announced by the organiser. An
// empty list is not an error.
type EventSource interface {
	FetchEvents(ctx context.Context) ([]models.Event, error)
}

// PhaseContext tells a script generator which campaign stage it writes for.
type PhaseContext struct {
	Phase     models.Phase
	Format    models.Format
	Style     string
	DaysUntil int
}

// ScriptGenerator turns an event into an ordered, non-empty list of scenes.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, event models.Event, pc PhaseContext) ([]models.Scene, error)
}

// Facts is what could be read from the authoritative event page.
type Facts struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Speaker     string `json:"speaker"`
	Price       string `json:"price"`
	Format      string `json:"format"`
	Description string `json:"description"`
	BodyText    string `json:"bodyText"`
}

// FactRetriever reads the authoritative facts of an event.
type FactRetriever interface {
	FetchFacts(ctx context.Context, url string) (*Facts, error)
}

// Comparison is a comparator's judgement of generated scenes against facts.
type Comparison struct {
	Passed        bool     `json:"passed"`
	Discrepancies []string `json:"discrepancies"`
}

// ContentComparator checks generated scenes against retrieved facts.
type ContentComparator interface {
	Compare(ctx context.Context, scenes []models.Scene, facts *Facts, event models.Event) (*Comparison, error)
}

// Caption is the post text plus its hashtags.
type Caption struct {
	Text     string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

// Full returns the caption text followed by its hashtags.
func (c *Caption) Full() string {
	if c == nil {
		return ""
	}
	if len(c.Hashtags) == 0 {
		return c.Text
	}
	return c.Text + "\n\n" + strings.Join(c.Hashtags, " ")
}

// CaptionGenerator writes the post caption for a unit.
type CaptionGenerator interface {
	GenerateCaption(ctx context.Context, event models.Event, phase models.Phase, daysUntil int) (*Caption, error)
}

// Renderer produces a video artifact and returns its path.
type Renderer interface {
	Render(ctx context.Context, event models.Event, scenes []models.Scene, format models.Format) (string, error)
}

// PublishResult is the outcome of one publication attempt.
type PublishResult struct {
	Published bool
	PostID    string
	Err       error
}

// Publisher posts a rendered artifact to the social platform.
type Publisher interface {
	IsConfigured() bool
	Publish(ctx context.Context, artifact string, caption *Caption, format models.Format) PublishResult
}

// PostLedger is the subset of the ledger store the orchestrator needs.
// Defining it here avoids importing the storage package.
type PostLedger interface {
	Load() (*models.Ledger, error)
	Append(record models.PostRecord) error
}

// ReportWriter persists run reports. Defining it here avoids importing the
// storage package.
type ReportWriter interface {
	Write(report models.RunReport) (string, error)
}

// EventLogger records pipeline lifecycle events (run started and finished,
// unit processed, rejected or failed) for metrics and alerting.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}
