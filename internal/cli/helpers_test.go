package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/valter-silva-au/event-promo/internal/core"
	"github.com/valter-silva-au/event-promo/internal/observability"
	"github.com/valter-silva-au/event-promo/pkg/models"
)

// captureStdout redirects os.Stdout while fn runs and returns what was written.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = origStdout

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading pipe: %v", err)
	}
	return string(out)
}

// testNow is Wednesday 2026-03-04 10:00 UTC.
var testNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

type pipelineMock struct {
	events    []models.Event
	eventsErr error
	decisions []core.Decision
	planErr   error
	report    *models.RunReport
	runErr    error

	gotOpts core.RunOptions
	gotAt   time.Time
}

func (m *pipelineMock) Run(_ context.Context, opts core.RunOptions) (*models.RunReport, error) {
	m.gotOpts = opts
	return m.report, m.runErr
}

func (m *pipelineMock) ListEvents(_ context.Context) ([]models.Event, error) {
	return m.events, m.eventsErr
}

func (m *pipelineMock) Plan(_ context.Context, now time.Time) ([]core.Decision, error) {
	m.gotAt = now
	return m.decisions, m.planErr
}

type ledgerMock struct {
	ledger *models.Ledger
	err    error
}

func (m *ledgerMock) Load() (*models.Ledger, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.ledger == nil {
		return models.NewLedger(), nil
	}
	return m.ledger, nil
}

func (m *ledgerMock) Append(record models.PostRecord) error {
	if m.ledger == nil {
		m.ledger = models.NewLedger()
	}
	m.ledger.Posts = append(m.ledger.Posts, record)
	return nil
}

type reportsMock struct {
	reports map[string]*models.RunReport
	err     error
}

func (m *reportsMock) Write(report models.RunReport) (string, error) {
	if m.reports == nil {
		m.reports = map[string]*models.RunReport{}
	}
	m.reports[report.Date] = &report
	return "report-" + report.Date + ".yaml", nil
}

func (m *reportsMock) Get(date string) (*models.RunReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.reports[date]
	if !ok {
		return nil, fmt.Errorf("no run report for %s", date)
	}
	return r, nil
}

func (m *reportsMock) Latest() (*models.RunReport, error) {
	dates, err := m.Dates()
	if err != nil || len(dates) == 0 {
		return nil, err
	}
	return m.reports[dates[len(dates)-1]], nil
}

func (m *reportsMock) Dates() ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	var dates []string
	for d := range m.reports {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}

type metricsMock struct {
	calcFn func(since time.Time) (*observability.Metrics, error)
}

func (m *metricsMock) Calculate(since time.Time) (*observability.Metrics, error) {
	return m.calcFn(since)
}

type alertsMock struct {
	evaluateFn func() ([]observability.Alert, error)
}

func (m *alertsMock) Evaluate() ([]observability.Alert, error) {
	return m.evaluateFn()
}

type notifierMock struct {
	alerts [][]observability.Alert
	runs   []*models.RunReport
	err    error
}

func (m *notifierMock) Notify(alerts []observability.Alert) error {
	m.alerts = append(m.alerts, alerts)
	return m.err
}

func (m *notifierMock) NotifyRun(report *models.RunReport) error {
	m.runs = append(m.runs, report)
	return m.err
}

type eventLogMock struct {
	events    []observability.Event
	err       error
	gotFilter observability.EventFilter
}

func (m *eventLogMock) Write(event observability.Event) error {
	m.events = append(m.events, event)
	return nil
}

func (m *eventLogMock) Read(filter observability.EventFilter) ([]observability.Event, error) {
	m.gotFilter = filter
	return m.events, m.err
}

func (m *eventLogMock) Close() error { return nil }

func scheduledDecision(id, title string, phase models.Phase, days int) core.Decision {
	ev := models.Event{ID: id, Title: title}
	return core.Decision{
		Event:     ev,
		Phase:     phase,
		DaysUntil: days,
		Unit:      &models.ScheduledUnit{Event: ev, Phase: phase, DaysUntilEvent: days},
	}
}

func skippedDecision(id, title string, reason core.SkipReason, days int) core.Decision {
	return core.Decision{
		Event:     models.Event{ID: id, Title: title},
		DaysUntil: days,
		Skip:      reason,
	}
}
