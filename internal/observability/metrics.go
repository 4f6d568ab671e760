package observability

import (
	"fmt"
	"time"
)

// Metrics summarises pipeline activity derived from the event log.
type Metrics struct {
	Runs          int            `json:"runs"`
	DryRuns       int            `json:"dry_runs"`
	RunsWithError int            `json:"runs_with_errors"`
	Units         int            `json:"units"`
	Published     int            `json:"published"`
	DryRunPosts   int            `json:"dry_run_posts"`
	NotRendered   int            `json:"not_rendered"`
	Rejected      int            `json:"rejected"`
	Failed        int            `json:"failed"`
	PublishFailed int            `json:"publish_failed"`
	ByPhase       map[string]int `json:"by_phase"`
	EventCount    int            `json:"event_count"`
	LastRunAt     *time.Time     `json:"last_run_at,omitempty"`
	OldestEvent   *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent   *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{ByPhase: make(map[string]int), EventCount: len(events)}
	for i, event := range events {
		t := event.Time
		if i == 0 {
			m.OldestEvent = &t
		}
		m.NewestEvent = &t

		switch event.Type {
		case TypePipelineFinished:
			m.Runs++
			m.LastRunAt = &t
			if dry, _ := event.Data["dry_run"].(bool); dry {
				m.DryRuns++
			}
			if intField(event.Data, "errors") > 0 {
				m.RunsWithError++
			}
		case TypeUnitProcessed, TypeUnitRejected, TypeUnitFailed:
			m.Units++
			if phase, ok := event.Data["phase"].(string); ok && phase != "" {
				m.ByPhase[phase]++
			}
			outcome, _ := event.Data["outcome"].(string)
			m.countOutcome(outcome)
		}
	}
	return m, nil
}

func (m *Metrics) countOutcome(outcome string) {
	switch outcome {
	case "published":
		m.Published++
	case "dry_run":
		m.DryRunPosts++
	case "not_rendered":
		m.NotRendered++
	case "rejected":
		m.Rejected++
	case "failed":
		m.Failed++
	case "publish_failed":
		m.PublishFailed++
	}
}

// intField reads a numeric field that may have round-tripped through JSON.
func intField(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
