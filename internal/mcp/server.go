// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the promo pipeline's schedule, ledger and reports as read-only tools.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/event-promo/internal/core"
	"github.com/valter-silva-au/event-promo/internal/observability"
	"github.com/valter-silva-au/event-promo/pkg/models"
)

// ReportReader is the read side of the run report store.
type ReportReader interface {
	Get(date string) (*models.RunReport, error)
	Latest() (*models.RunReport, error)
}

// Server exposes pipeline state as MCP tools. None of the tools post,
// render or modify the ledger.
type Server struct {
	server      *gomcp.Server
	pipeline    core.PipelineOrchestrator
	ledger      core.PostLedger
	reports     ReportReader
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
	loc         *time.Location
	now         func() time.Time
}

// NewServer creates a new MCP server. metricsCalc and alertEngine may be nil
// if observability is disabled.
func NewServer(pipeline core.PipelineOrchestrator, ledger core.PostLedger, reports ReportReader, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{
		pipeline:    pipeline,
		ledger:      ledger,
		reports:     reports,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
		loc:         time.Local,
		now:         time.Now,
	}
	s.server = gomcp.NewServer(&gomcp.Implementation{Name: "promo", Version: version}, nil)
	s.registerTools()
	return s
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// WithLocation sets the zone bare dates in list_schedule are read in.
func (s *Server) WithLocation(loc *time.Location) *Server {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type listEventsInput struct{}

type eventOutput struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Type    string `json:"type"`
	Speaker string `json:"speaker,omitempty"`
	URL     string `json:"url"`
}

type listEventsOutput struct {
	Events []eventOutput `json:"events"`
	Count  int           `json:"count"`
}

type listScheduleInput struct {
	At string `json:"at,omitempty" jsonschema:"instant to evaluate, RFC3339 or YYYY-MM-DD. Defaults to now."`
}

type decisionOutput struct {
	EventID   string `json:"event_id"`
	Title     string `json:"title"`
	Scheduled bool   `json:"scheduled"`
	Phase     string `json:"phase,omitempty"`
	Format    string `json:"format,omitempty"`
	DaysUntil int    `json:"days_until"`
	Skip      string `json:"skip,omitempty"`
	Reason    string `json:"reason"`
}

type listScheduleOutput struct {
	At        string           `json:"at"`
	Decisions []decisionOutput `json:"decisions"`
	Scheduled int              `json:"scheduled"`
}

type listPostsInput struct {
	EventID string `json:"event_id,omitempty" jsonschema:"only records for this event id"`
}

type postOutput struct {
	EventID        string `json:"event_id"`
	Phase          string `json:"phase"`
	PostedAt       string `json:"posted_at"`
	DryRun         bool   `json:"dry_run"`
	ExternalPostID string `json:"external_post_id,omitempty"`
	Artifact       string `json:"artifact,omitempty"`
}

type listPostsOutput struct {
	Posts []postOutput `json:"posts"`
	Count int          `json:"count"`
}

type getReportInput struct {
	Date string `json:"date,omitempty" jsonschema:"report date YYYY-MM-DD. Defaults to the latest report."`
}

type postSummaryOutput struct {
	EventID        string `json:"event_id"`
	Event          string `json:"event"`
	Phase          string `json:"phase"`
	Outcome        string `json:"outcome"`
	Artifact       string `json:"artifact,omitempty"`
	Verified       string `json:"verified"`
	Published      bool   `json:"published"`
	ExternalPostID string `json:"external_post_id,omitempty"`
}

type reportOutput struct {
	Date            string              `json:"date"`
	RunID           string              `json:"run_id"`
	StartedAt       string              `json:"started_at"`
	FinishedAt      string              `json:"finished_at"`
	DryRun          bool                `json:"dry_run"`
	EventsScraped   int                 `json:"events_scraped"`
	EventsScheduled int                 `json:"events_scheduled"`
	VideosGenerated int                 `json:"videos_generated"`
	VideosPublished int                 `json:"videos_published"`
	Errors          []string            `json:"errors"`
	Posts           []postSummaryOutput `json:"posts"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 30d."`
}

type metricsOutput struct {
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
	LastRunAt     string         `json:"last_run_at,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_events",
		Description: "List the events currently announced on the academy site.",
	}, s.handleListEvents)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_schedule",
		Description: "Evaluate every event against the posting rules and ledger, with the reason each one is or is not due.",
	}, s.handleListSchedule)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_posts",
		Description: "List ledger records of published and dry-run posts, oldest first.",
	}, s.handleListPosts)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_report",
		Description: "Get the run report for a date, or the latest one.",
	}, s.handleGetReport)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get run and post counts aggregated from the event log.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (stale runs, run errors, rejections).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleListEvents(ctx context.Context, _ *gomcp.CallToolRequest, _ listEventsInput) (*gomcp.CallToolResult, listEventsOutput, error) {
	events, err := s.pipeline.ListEvents(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("listing events: %s", err)), listEventsOutput{}, nil
	}
	out := listEventsOutput{Events: make([]eventOutput, len(events)), Count: len(events)}
	for i, ev := range events {
		out.Events[i] = eventOutput{ID: ev.ID, Title: ev.Title, Date: ev.Date, Type: ev.Type, Speaker: ev.Speaker, URL: ev.URL}
	}
	return nil, out, nil
}

func (s *Server) handleListSchedule(ctx context.Context, _ *gomcp.CallToolRequest, input listScheduleInput) (*gomcp.CallToolResult, listScheduleOutput, error) {
	at := s.now()
	if input.At != "" {
		parsed, err := ParseInstant(input.At, s.loc)
		if err != nil {
			return errorResult(err.Error()), listScheduleOutput{}, nil
		}
		at = parsed
	}

	decisions, err := s.pipeline.Plan(ctx, at)
	if err != nil {
		return errorResult(fmt.Sprintf("planning schedule: %s", err)), listScheduleOutput{}, nil
	}
	out := listScheduleOutput{At: at.Format(time.RFC3339), Decisions: make([]decisionOutput, len(decisions))}
	for i, d := range decisions {
		o := decisionOutput{
			EventID:   d.Event.ID,
			Title:     d.Event.Title,
			Scheduled: d.Scheduled(),
			Phase:     string(d.Phase),
			DaysUntil: d.DaysUntil,
			Skip:      string(d.Skip),
			Reason:    d.Describe(),
		}
		if d.Unit != nil {
			o.Format = string(d.Unit.Format)
			out.Scheduled++
		}
		out.Decisions[i] = o
	}
	return nil, out, nil
}

func (s *Server) handleListPosts(_ context.Context, _ *gomcp.CallToolRequest, input listPostsInput) (*gomcp.CallToolResult, listPostsOutput, error) {
	ledger, err := s.ledger.Load()
	if err != nil {
		return errorResult(fmt.Sprintf("loading ledger: %s", err)), listPostsOutput{}, nil
	}
	records := ledger.Posts
	if input.EventID != "" {
		records = ledger.PostsFor(input.EventID)
	}
	out := listPostsOutput{Posts: make([]postOutput, len(records)), Count: len(records)}
	for i, r := range records {
		out.Posts[i] = postOutput{
			EventID:        r.EventID,
			Phase:          string(r.Phase),
			PostedAt:       r.PostedAt.Format(time.RFC3339),
			DryRun:         r.DryRun,
			ExternalPostID: r.ExternalPostID,
			Artifact:       r.Artifact,
		}
	}
	return nil, out, nil
}

func (s *Server) handleGetReport(_ context.Context, _ *gomcp.CallToolRequest, input getReportInput) (*gomcp.CallToolResult, reportOutput, error) {
	var (
		report *models.RunReport
		err    error
	)
	if input.Date != "" {
		report, err = s.reports.Get(input.Date)
	} else {
		report, err = s.reports.Latest()
	}
	if err != nil {
		return errorResult(fmt.Sprintf("reading report: %s", err)), reportOutput{}, nil
	}
	if report == nil {
		return errorResult("no run reports yet"), reportOutput{}, nil
	}
	return nil, reportToOutput(report), nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), metricsOutput{ByPhase: map[string]int{}}, nil
	}
	since := input.Since
	if since == "" {
		since = "30d"
	}
	sinceTime, err := ParseSince(since, s.now())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), metricsOutput{ByPhase: map[string]int{}}, nil
	}
	m, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), metricsOutput{ByPhase: map[string]int{}}, nil
	}

	out := metricsOutput{
		Runs:          m.Runs,
		DryRuns:       m.DryRuns,
		RunsWithError: m.RunsWithError,
		Units:         m.Units,
		Published:     m.Published,
		DryRunPosts:   m.DryRunPosts,
		NotRendered:   m.NotRendered,
		Rejected:      m.Rejected,
		Failed:        m.Failed,
		PublishFailed: m.PublishFailed,
		ByPhase:       m.ByPhase,
		EventCount:    m.EventCount,
	}
	if m.LastRunAt != nil {
		out.LastRunAt = m.LastRunAt.Format(time.RFC3339)
	}
	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (observability may be disabled)"), getAlertsOutput{}, nil
	}
	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}
	out := getAlertsOutput{Alerts: make([]alertOutput, len(alerts)), Count: len(alerts)}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}
	return nil, out, nil
}

// --- Helpers ---

func reportToOutput(r *models.RunReport) reportOutput {
	out := reportOutput{
		Date:            r.Date,
		RunID:           r.RunID,
		StartedAt:       r.StartedAt.Format(time.RFC3339),
		FinishedAt:      r.FinishedAt.Format(time.RFC3339),
		DryRun:          r.DryRun,
		EventsScraped:   r.EventsScraped,
		EventsScheduled: r.EventsScheduled,
		VideosGenerated: r.VideosGenerated,
		VideosPublished: r.VideosPublished,
		Errors:          append([]string{}, r.Errors...),
		Posts:           make([]postSummaryOutput, len(r.Posts)),
	}
	for i, p := range r.Posts {
		verified := "skipped"
		if p.Verified != nil {
			verified = "failed"
			if *p.Verified {
				verified = "passed"
			}
		}
		out.Posts[i] = postSummaryOutput{
			EventID:        p.EventID,
			Event:          p.Event,
			Phase:          string(p.Phase),
			Outcome:        string(p.Outcome),
			Artifact:       p.Artifact,
			Verified:       verified,
			Published:      p.Published,
			ExternalPostID: p.ExternalPostID,
		}
	}
	return out
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// ParseSince parses a window like "7d" or "24h" into the instant that far
// before now.
func ParseSince(s string, now time.Time) (time.Time, error) {
	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}
	suffix := s[len(s)-1]
	var num int
	if _, err := fmt.Sscanf(s[:len(s)-1], "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if num < 0 {
		return time.Time{}, fmt.Errorf("invalid duration %q: negative", s)
	}
	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}

// ParseInstant accepts RFC3339, "2006-01-02 15:04" or a bare date (taken
// as 09:00) in loc.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t.Add(9 * time.Hour), nil
	}
	return time.Time{}, fmt.Errorf("invalid instant %q: use RFC3339, YYYY-MM-DD HH:MM or YYYY-MM-DD", s)
}
