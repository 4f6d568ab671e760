package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/valter-silva-au/event-promo/pkg/models"
)

// RunOptions configures one pipeline run.
type RunOptions struct {
	// DryRun renders but never publishes.
	DryRun bool
	// PostOne processes only the first scheduled unit.
	PostOne bool
	// SkipRender stops each unit after its caption is generated.
	SkipRender bool
	// SkipVerification bypasses the fact-check gate.
	SkipVerification bool
	// EventID restricts the run to one event, matched exactly or by substring.
	EventID string
}

// PipelineDeps are the collaborators of a PipelineOrchestrator. EventLogger,
// Reports and Logger may be nil.
type PipelineDeps struct {
	Source      EventSource
	Scripts     ScriptGenerator
	Gate        VerificationGate
	Captions    CaptionGenerator
	Renderer    Renderer
	Publisher   Publisher
	Ledger      PostLedger
	Reports     ReportWriter
	Scheduler   *Scheduler
	EventLogger EventLogger
	Logger      logrus.FieldLogger
	// Now defaults to time.Now.
	Now func() time.Time
}

// PipelineOrchestrator drives scheduled units through generation,
// verification, rendering and publication.
type PipelineOrchestrator interface {
	// Run executes one full run. The returned report is never nil; the error
	// is set only when the run could not get past fetching events and
	// loading the ledger.
	Run(ctx context.Context, opts RunOptions) (*models.RunReport, error)
	// ListEvents fetches the current candidate events.
	ListEvents(ctx context.Context) ([]models.Event, error)
	// Plan evaluates every candidate event against the ledger at now.
	Plan(ctx context.Context, now time.Time) ([]Decision, error)
}

type pipelineOrchestrator struct {
	deps PipelineDeps
	log  logrus.FieldLogger
}

// NewPipelineOrchestrator creates a PipelineOrchestrator.
func NewPipelineOrchestrator(deps PipelineDeps) PipelineOrchestrator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = discardLogger()
	}
	if deps.Scheduler == nil {
		deps.Scheduler = NewScheduler(time.UTC, deps.Logger)
	}
	return &pipelineOrchestrator{deps: deps, log: deps.Logger}
}

func (p *pipelineOrchestrator) ListEvents(ctx context.Context) ([]models.Event, error) {
	if p.deps.Source == nil {
		return nil, &ConfigurationError{Component: "event source", Reason: "none configured"}
	}
	events, err := p.deps.Source.FetchEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching events: %w", err)
	}
	return events, nil
}

func (p *pipelineOrchestrator) Plan(ctx context.Context, now time.Time) ([]Decision, error) {
	events, err := p.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	ledger, err := p.deps.Ledger.Load()
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}
	return p.deps.Scheduler.Evaluate(events, now, ledger), nil
}

// unitState accumulates what happened to one unit.
type unitState struct {
	unit    models.ScheduledUnit
	summary models.PostSummary
	record  *models.PostRecord
	err     string
}

func (p *pipelineOrchestrator) Run(ctx context.Context, opts RunOptions) (*models.RunReport, error) {
	started := p.deps.Now()
	report := &models.RunReport{
		Date:      started.In(p.deps.Scheduler.Location()).Format("2006-01-02"),
		RunID:     uuid.NewString(),
		StartedAt: started,
		Errors:    []string{},
	}
	log := p.log.WithField("run_id", report.RunID)

	dryRun := opts.DryRun
	if !dryRun && (p.deps.Publisher == nil || !p.deps.Publisher.IsConfigured()) {
		cfgErr := &ConfigurationError{Component: "publisher", Reason: "access token or account id missing"}
		log.WithError(cfgErr).Warn("forcing dry run")
		dryRun = true
	}
	report.DryRun = dryRun
	if opts.SkipVerification {
		log.Warn("fact verification is disabled for this run")
	}
	p.logEvent("pipeline.started", map[string]any{
		"run_id":            report.RunID,
		"dry_run":           dryRun,
		"skip_render":       opts.SkipRender,
		"skip_verification": opts.SkipVerification,
		"event_filter":      opts.EventID,
	})

	fatal := p.runUnits(ctx, opts, dryRun, report, log)

	report.FinishedAt = p.deps.Now()
	if p.deps.Reports != nil {
		if path, err := p.deps.Reports.Write(*report); err != nil {
			log.WithError(err).Error("writing run report")
		} else {
			log.WithField("path", path).Info("run report written")
		}
	}
	p.logEvent("pipeline.finished", map[string]any{
		"run_id":           report.RunID,
		"dry_run":          dryRun,
		"events_scraped":   report.EventsScraped,
		"events_scheduled": report.EventsScheduled,
		"videos_generated": report.VideosGenerated,
		"videos_published": report.VideosPublished,
		"errors":           len(report.Errors),
	})
	return report, fatal
}

// runUnits fills report and returns a run-fatal error, if any.
func (p *pipelineOrchestrator) runUnits(ctx context.Context, opts RunOptions, dryRun bool, report *models.RunReport, log logrus.FieldLogger) error {
	events, err := p.ListEvents(ctx)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return err
	}
	report.EventsScraped = len(events)
	log.WithField("count", len(events)).Info("events fetched")

	ledger, err := p.deps.Ledger.Load()
	if err != nil {
		err = fmt.Errorf("loading ledger: %w", err)
		report.Errors = append(report.Errors, err.Error())
		return err
	}

	now := p.deps.Now()
	var units []models.ScheduledUnit
	if opts.EventID != "" {
		ev, ok := findEvent(events, opts.EventID)
		if !ok {
			err := fmt.Errorf("event not found: %s", opts.EventID)
			report.Errors = append(report.Errors, err.Error())
			return err
		}
		d := p.deps.Scheduler.Force(ev, now, ledger)
		switch {
		case d.Unit != nil:
			units = append(units, *d.Unit)
		case d.Skip == SkipPast:
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", ev.Title, d.Describe()))
			log.WithField("event", ev.ID).Warn("requested event is in the past")
		default:
			log.WithField("event", ev.ID).Infof("requested event not scheduled: %s", d.Describe())
		}
	} else {
		units = p.deps.Scheduler.Schedule(events, now, ledger)
	}
	if opts.PostOne && len(units) > 1 {
		units = units[:1]
	}
	report.EventsScheduled = len(units)
	log.WithField("count", len(units)).Info("units scheduled")

	processed := make(map[unitKey]bool, len(units))
	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: run interrupted: %v", unit.Event.Title, err))
			break
		}
		key := unitKey{eventID: unit.Event.ID, phase: unit.Phase}
		if processed[key] {
			log.WithFields(logrus.Fields{"event": unit.Event.ID, "phase": unit.Phase}).Warn("unit already processed in this run")
			continue
		}
		processed[key] = true
		st := p.processUnit(ctx, unit, opts, dryRun, log)
		p.finishUnit(st, report, log)
	}
	return nil
}

// finishUnit records a unit's outcome in the ledger and the report.
func (p *pipelineOrchestrator) finishUnit(st *unitState, report *models.RunReport, log logrus.FieldLogger) {
	s := &st.summary
	switch s.Outcome {
	case models.OutcomeDryRun, models.OutcomePublished, models.OutcomePublishFailed:
		report.VideosGenerated++
	}
	if s.Outcome == models.OutcomePublished {
		report.VideosPublished++
	}
	if st.err != "" {
		report.Errors = append(report.Errors, st.err)
	}

	if st.record != nil {
		if err := p.deps.Ledger.Append(*st.record); err != nil {
			msg := fmt.Sprintf("%s: %v", st.unit.Event.Title, &StageError{Stage: StageRecord, Err: err})
			report.Errors = append(report.Errors, msg)
			log.WithField("event", st.unit.Event.ID).WithError(err).Error("appending ledger record")
		}
	}
	report.Posts = append(report.Posts, *s)

	data := map[string]any{
		"event_id": st.unit.Event.ID,
		"phase":    string(st.unit.Phase),
		"outcome":  string(s.Outcome),
	}
	switch s.Outcome {
	case models.OutcomeRejected:
		data["reason"] = st.err
		p.logEvent("unit.rejected", data)
	case models.OutcomeFailed, models.OutcomePublishFailed:
		data["error"] = st.err
		p.logEvent("unit.failed", data)
	default:
		p.logEvent("unit.processed", data)
	}
}

// processUnit runs one unit through every stage. Panics in collaborators
// fail the unit only.
func (p *pipelineOrchestrator) processUnit(ctx context.Context, unit models.ScheduledUnit, opts RunOptions, dryRun bool, runLog logrus.FieldLogger) (st *unitState) {
	ev := unit.Event
	log := runLog.WithFields(logrus.Fields{"event": ev.ID, "phase": unit.Phase})
	st = &unitState{
		unit: unit,
		summary: models.PostSummary{
			EventID: ev.ID,
			Event:   ev.Title,
			Phase:   unit.Phase,
		},
	}
	fail := func(err error) *unitState {
		st.summary.Outcome = models.OutcomeFailed
		st.record = nil
		st.err = fmt.Sprintf("%s: %v", ev.Title, err)
		log.WithError(err).Error("unit failed")
		return st
	}
	defer func() {
		if r := recover(); r != nil {
			fail(fmt.Errorf("panic: %v", r))
		}
	}()

	log.Info("processing unit")

	scenes, err := p.deps.Scripts.GenerateScript(ctx, ev, PhaseContext{
		Phase:     unit.Phase,
		Format:    unit.Format,
		Style:     unit.Style,
		DaysUntil: unit.DaysUntilEvent,
	})
	if err == nil && len(scenes) == 0 {
		err = errors.New("generator returned no scenes")
	}
	if err != nil {
		return fail(&StageError{Stage: StageScript, Err: err})
	}

	if !opts.SkipVerification {
		verdict := p.deps.Gate.Verify(ctx, ev, scenes)
		verified := verdict.Passed()
		st.summary.Verified = &verified
		if !verified {
			st.summary.Outcome = models.OutcomeRejected
			if verdict.Kind == VerdictRejected {
				st.err = fmt.Sprintf("verification failed: %s - %s", ev.Title, strings.Join(verdict.Discrepancies, ", "))
			} else {
				st.err = fmt.Sprintf("%s: %v", ev.Title, verdict.Err())
			}
			log.WithField("verdict", verdict.Kind).Warn("content blocked by verification")
			return st
		}
	} else {
		log.Warn("verification skipped")
	}

	caption, err := p.deps.Captions.GenerateCaption(ctx, ev, unit.Phase, unit.DaysUntilEvent)
	if err == nil && caption == nil {
		err = errors.New("generator returned no caption")
	}
	if err != nil {
		return fail(&StageError{Stage: StageCaption, Err: err})
	}

	if opts.SkipRender {
		st.summary.Outcome = models.OutcomeNotRendered
		st.record = &models.PostRecord{
			EventID:  ev.ID,
			Phase:    unit.Phase,
			PostedAt: p.deps.Now(),
			DryRun:   true,
		}
		log.Info("render skipped")
		return st
	}

	artifact, err := p.deps.Renderer.Render(ctx, ev, scenes, unit.Format)
	if err != nil {
		return fail(&StageError{Stage: StageRender, Err: err})
	}
	st.summary.Artifact = artifact
	log.WithField("artifact", artifact).Info("video rendered")

	if dryRun {
		st.summary.Outcome = models.OutcomeDryRun
		st.record = &models.PostRecord{
			EventID:  ev.ID,
			Phase:    unit.Phase,
			PostedAt: p.deps.Now(),
			Artifact: artifact,
			DryRun:   true,
		}
		log.Info("dry run, not publishing")
		return st
	}

	res := p.deps.Publisher.Publish(ctx, artifact, caption, unit.Format)
	st.record = &models.PostRecord{
		EventID:  ev.ID,
		Phase:    unit.Phase,
		PostedAt: p.deps.Now(),
		Artifact: artifact,
	}
	if res.Err != nil || !res.Published {
		cause := res.Err
		if cause == nil {
			cause = errors.New("publisher reported no success")
		}
		st.summary.Outcome = models.OutcomePublishFailed
		st.err = fmt.Sprintf("%s: %v", ev.Title, &StageError{Stage: StagePublish, Err: cause})
		log.WithError(cause).Error("publishing failed")
		return st
	}

	st.summary.Outcome = models.OutcomePublished
	st.summary.Published = true
	st.summary.ExternalPostID = res.PostID
	st.record.ExternalPostID = res.PostID
	log.WithField("post_id", res.PostID).Info("published")
	return st
}

func (p *pipelineOrchestrator) logEvent(eventType string, data map[string]any) {
	if p.deps.EventLogger == nil {
		return
	}
	if err := p.deps.EventLogger.LogEvent(eventType, data); err != nil {
		p.log.WithError(err).Warn("writing event log")
	}
}

// findEvent matches id exactly first, then as a substring of event ids.
func findEvent(events []models.Event, id string) (models.Event, bool) {
	for _, ev := range events {
		if ev.ID == id {
			return ev, true
		}
	}
	for _, ev := range events {
		if strings.Contains(ev.ID, id) {
			return ev, true
		}
	}
	return models.Event{}, false
}
