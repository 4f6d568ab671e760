package models

import "time"

// UnitOutcome is the terminal state a scheduled unit reached in a run.
type UnitOutcome string

const (
	OutcomePublished     UnitOutcome = "published"
	OutcomeDryRun        UnitOutcome = "dry_run"
	OutcomePublishFailed UnitOutcome = "publish_failed"
	OutcomeNotRendered   UnitOutcome = "not_rendered"
	OutcomeRejected      UnitOutcome = "rejected"
	OutcomeFailed        UnitOutcome = "failed"
)

// PostSummary describes what happened to one unit during a run.
type PostSummary struct {
	EventID        string      `yaml:"event_id" json:"event_id"`
	Event          string      `yaml:"event" json:"event"`
	Phase          Phase       `yaml:"phase" json:"phase"`
	Outcome        UnitOutcome `yaml:"outcome" json:"outcome"`
	Artifact       string      `yaml:"artifact,omitempty" json:"artifact,omitempty"`
	Verified       *bool       `yaml:"verified,omitempty" json:"verified,omitempty"`
	Published      bool        `yaml:"published" json:"published"`
	ExternalPostID string      `yaml:"external_post_id,omitempty" json:"external_post_id,omitempty"`
}

// RunReport summarises one pipeline execution. One report is kept per
// calendar date; a later run on the same date overwrites it.
type RunReport struct {
	Date            string        `yaml:"date" json:"date"`
	RunID           string        `yaml:"run_id" json:"run_id"`
	StartedAt       time.Time     `yaml:"started_at" json:"started_at"`
	FinishedAt      time.Time     `yaml:"finished_at" json:"finished_at"`
	DryRun          bool          `yaml:"dry_run" json:"dry_run"`
	EventsScraped   int           `yaml:"events_scraped" json:"events_scraped"`
	EventsScheduled int           `yaml:"events_scheduled" json:"events_scheduled"`
	VideosGenerated int           `yaml:"videos_generated" json:"videos_generated"`
	VideosPublished int           `yaml:"videos_published" json:"videos_published"`
	Errors          []string      `yaml:"errors" json:"errors"`
	Posts           []PostSummary `yaml:"posts,omitempty" json:"posts,omitempty"`
}
