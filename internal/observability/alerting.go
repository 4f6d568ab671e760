package observability

import (
	"fmt"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert conditions.
const (
	ConditionNoRecentRun   = "no_recent_run"
	ConditionRejections    = "rejections_over_threshold"
	ConditionLastRunErrors = "last_run_errors"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts fire.
type AlertThresholds struct {
	StaleRunHours int `yaml:"stale_run_hours" json:"stale_run_hours"`
	MaxRejections int `yaml:"max_rejections" json:"max_rejections"`
}

// DefaultAlertThresholds suit a once-daily scheduled run.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{StaleRunHours: 36, MaxRejections: 3}
}

// AlertEngine evaluates alert conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

type alertEngine struct {
	eventLog   EventLog
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates an AlertEngine over eventLog.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{eventLog: eventLog, thresholds: thresholds, now: time.Now}
}

// Evaluate checks the most recent finished run: whether it is too old,
// whether it ended with errors and how many units it rejected.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	now := ae.now().UTC()
	finished, err := ae.eventLog.Read(EventFilter{Type: TypePipelineFinished})
	if err != nil {
		return nil, fmt.Errorf("reading finished runs: %w", err)
	}

	var alerts []Alert
	if len(finished) == 0 {
		return append(alerts, Alert{
			ID:          "no-run",
			Condition:   ConditionNoRecentRun,
			Severity:    SeverityHigh,
			Message:     "no pipeline run has been recorded",
			TriggeredAt: now,
		}), nil
	}

	last := finished[len(finished)-1]
	staleAfter := time.Duration(ae.thresholds.StaleRunHours) * time.Hour
	if staleAfter > 0 && now.Sub(last.Time) > staleAfter {
		alerts = append(alerts, Alert{
			ID:          "stale-run",
			Condition:   ConditionNoRecentRun,
			Severity:    SeverityHigh,
			Message:     fmt.Sprintf("last pipeline run finished %s ago, more than %d hours", now.Sub(last.Time).Round(time.Minute), ae.thresholds.StaleRunHours),
			TriggeredAt: now,
		})
	}

	if n := intField(last.Data, "errors"); n > 0 {
		alerts = append(alerts, Alert{
			ID:          "errors-" + last.RunID(),
			Condition:   ConditionLastRunErrors,
			Severity:    SeverityMedium,
			Message:     fmt.Sprintf("last pipeline run %s ended with %d error(s)", last.RunID(), n),
			TriggeredAt: now,
		})
	}

	if runID := last.RunID(); runID != "" {
		rejected, err := ae.eventLog.Read(EventFilter{Type: TypeUnitRejected, RunID: runID})
		if err != nil {
			return nil, fmt.Errorf("reading rejections: %w", err)
		}
		if len(rejected) > ae.thresholds.MaxRejections {
			alerts = append(alerts, Alert{
				ID:          "rejections-" + runID,
				Condition:   ConditionRejections,
				Severity:    SeverityLow,
				Message:     fmt.Sprintf("last pipeline run rejected %d posts, exceeding the maximum of %d", len(rejected), ae.thresholds.MaxRejections),
				TriggeredAt: now,
			})
		}
	}
	return alerts, nil
}
