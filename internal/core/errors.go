package core

import (
	"fmt"
	"strings"
)

// Stage names a step of the per-unit pipeline.
type Stage string

// Pipeline stages. A StageError with StageScript is a script generation
// error, StageRender a render error and StagePublish a publish error.
const (
	StageScript  Stage = "script generation"
	StageCaption Stage = "caption generation"
	StageRender  Stage = "render"
	StagePublish Stage = "publish"
	StageRecord  Stage = "ledger append"
)

// StageError is a failure of one collaborator while processing a unit.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// DateParseError reports an event date that could not be resolved to a
// calendar day. It is a diagnostic and never aborts a run.
type DateParseError struct {
	EventID string
	Input   string
	Reason  string
}

func (e *DateParseError) Error() string {
	if e.EventID == "" {
		return fmt.Sprintf("cannot parse event date %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("cannot parse date %q of event %s: %s", e.Input, e.EventID, e.Reason)
}

// VerificationFailedError means the gate found discrepancies between the
// generated content and the published event facts.
type VerificationFailedError struct {
	Discrepancies []string
}

func (e *VerificationFailedError) Error() string {
	return "verification failed: " + strings.Join(e.Discrepancies, ", ")
}

// VerificationError means the gate could not reach a verdict. The unit is
// blocked all the same.
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string {
	return "verification error: " + e.Reason
}

// ConfigurationError describes missing or invalid settings. When raised for
// the publisher it forces dry-run mode instead of failing the run.
type ConfigurationError struct {
	Component string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured: %s", e.Component, e.Reason)
}
