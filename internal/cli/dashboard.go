package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/event-promo/pkg/models"
)

// Dashboard panel indices.
const (
	panelSchedule = iota
	panelLedger
	panelReport
	panelHealth
	panelCount
)

// dashboardLedgerRows is how many of the newest records the ledger panel shows.
const dashboardLedgerRows = 8

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	schedule    []scheduleSnapshot
	skipped     int
	records     []models.PostRecord
	report      *models.RunReport
	metricsData *metricsSnapshot
	alerts      []alertSnapshot

	// State.
	loading bool
	err     error
}

type scheduleSnapshot struct {
	phase string
	days  int
	title string
}

type metricsSnapshot struct {
	runs      int
	published int
	dryRuns   int
	rejected  int
	failed    int
}

type alertSnapshot struct {
	severity string
	message  string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	schedule []scheduleSnapshot
	skipped  int
	records  []models.PostRecord
	report   *models.RunReport
	metrics  *metricsSnapshot
	alerts   []alertSnapshot
	err      error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	phaseAwareness = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	phaseReminder  = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	phaseUrgency   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	phaseLastCall  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	outcomeGood = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	outcomeDry  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	outcomeBad  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	severityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelSchedule,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.schedule = msg.schedule
		m.skipped = msg.skipped
		m.records = msg.records
		m.report = msg.report
		m.metricsData = msg.metrics
		m.alerts = msg.alerts
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Promo Dashboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	panels := []string{
		m.renderSchedulePanel(),
		m.renderLedgerPanel(),
		m.renderReportPanel(),
		m.renderHealthPanel(),
	}

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Two by two grid.
		colWidth := availableWidth / 2
		for i := range panels {
			panels[i] = m.applyPanelStyle(i, panels[i], colWidth-4)
		}
		top := lipgloss.JoinHorizontal(lipgloss.Top, panels[panelSchedule], panels[panelLedger])
		bottom := lipgloss.JoinHorizontal(lipgloss.Top, panels[panelReport], panels[panelHealth])
		body = lipgloss.JoinVertical(lipgloss.Left, top, bottom)
	} else {
		// Vertical layout: stacked.
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		for i := range panels {
			panels[i] = m.applyPanelStyle(i, panels[i], panelWidth)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, panels...)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderSchedulePanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Due today"))
	b.WriteString("\n")

	if len(m.schedule) == 0 {
		b.WriteString("  No units due.")
	} else {
		for _, s := range m.schedule {
			label := fmt.Sprintf("%-10s", s.phase)
			b.WriteString(fmt.Sprintf("  %s %3dd  %s\n", styleForPhase(s.phase).Render(label), s.days, s.title))
		}
	}
	if m.skipped > 0 {
		b.WriteString(fmt.Sprintf("\n  %d event(s) not due", m.skipped))
	}
	return b.String()
}

func (m dashboardModel) renderLedgerPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Recent posts"))
	b.WriteString("\n")

	if len(m.records) == 0 {
		b.WriteString("  No post records.")
		return b.String()
	}

	for _, r := range m.records {
		mode := outcomeGood.Render("live")
		if r.DryRun {
			mode = outcomeDry.Render("dry ")
		}
		b.WriteString(fmt.Sprintf("  %s %s %-10s %s\n",
			r.PostedAt.In(Location).Format("01-02 15:04"), mode, r.Phase, r.EventID))
	}
	return b.String()
}

func (m dashboardModel) renderReportPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Last run"))
	b.WriteString("\n")

	r := m.report
	if r == nil {
		b.WriteString("  No run report yet.")
		return b.String()
	}

	mode := "live"
	if r.DryRun {
		mode = "dry run"
	}
	b.WriteString(fmt.Sprintf("  %s (%s)\n", r.Date, mode))
	lines := []struct {
		label string
		value int
	}{
		{"Scraped", r.EventsScraped},
		{"Scheduled", r.EventsScheduled},
		{"Generated", r.VideosGenerated},
		{"Published", r.VideosPublished},
	}
	for _, l := range lines {
		b.WriteString(fmt.Sprintf("  %-14s %d\n", l.label, l.value))
	}
	if len(r.Errors) > 0 {
		b.WriteString(outcomeBad.Render(fmt.Sprintf("\n  %d error(s)", len(r.Errors))))
		for _, e := range r.Errors {
			b.WriteString("\n  - " + e)
		}
	}
	return b.String()
}

func (m dashboardModel) renderHealthPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Health (7d)"))
	b.WriteString("\n")

	if md := m.metricsData; md != nil {
		lines := []struct {
			label string
			value int
		}{
			{"Runs", md.runs},
			{"Published", md.published},
			{"Dry-run", md.dryRuns},
			{"Rejected", md.rejected},
			{"Failed", md.failed},
		}
		for _, l := range lines {
			b.WriteString(fmt.Sprintf("  %-14s %d\n", l.label, l.value))
		}
		b.WriteString("\n")
	}

	if len(m.alerts) == 0 {
		b.WriteString("  No active alerts.")
		return b.String()
	}

	for _, a := range m.alerts {
		sev := styleForSeverity(a.severity).Render(fmt.Sprintf("[%s]", strings.ToUpper(a.severity)))
		b.WriteString(fmt.Sprintf("  %s %s\n", sev, a.message))
	}
	b.WriteString(fmt.Sprintf("\n  Total: %d alert(s)", len(m.alerts)))

	return b.String()
}

func styleForPhase(phase string) lipgloss.Style {
	switch models.Phase(phase) {
	case models.PhaseAwareness:
		return phaseAwareness
	case models.PhaseReminder:
		return phaseReminder
	case models.PhaseUrgency:
		return phaseUrgency
	case models.PhaseLastCall:
		return phaseLastCall
	default:
		return lipgloss.NewStyle()
	}
}

func styleForSeverity(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "high":
		return severityHigh
	case "medium":
		return severityMedium
	case "low":
		return severityLow
	default:
		return lipgloss.NewStyle()
	}
}

func loadData() tea.Msg {
	var result dataLoadedMsg
	now := nowFunc()

	if Pipeline != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		decisions, err := Pipeline.Plan(ctx, now.In(Location))
		cancel()
		if err != nil {
			result.err = fmt.Errorf("planning schedule: %w", err)
			return result
		}
		for _, d := range decisions {
			if !d.Scheduled() {
				result.skipped++
				continue
			}
			result.schedule = append(result.schedule, scheduleSnapshot{
				phase: string(d.Phase),
				days:  d.DaysUntil,
				title: d.Event.Title,
			})
		}
	}

	if Ledger != nil {
		ledger, err := Ledger.Load()
		if err != nil {
			result.err = fmt.Errorf("loading ledger: %w", err)
			return result
		}
		result.records = newestRecords(ledger.Posts, dashboardLedgerRows)
	}

	if Reports != nil {
		report, err := Reports.Latest()
		if err != nil {
			result.err = fmt.Errorf("loading report: %w", err)
			return result
		}
		result.report = report
	}

	if MetricsCalc != nil {
		since := now.UTC().AddDate(0, 0, -7)
		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.metrics = &metricsSnapshot{
			runs:      metrics.Runs,
			published: metrics.Published,
			dryRuns:   metrics.DryRunPosts,
			rejected:  metrics.Rejected,
			failed:    metrics.Failed,
		}
	}

	if AlertEngine != nil {
		alerts, err := AlertEngine.Evaluate()
		if err != nil {
			result.err = fmt.Errorf("loading alerts: %w", err)
			return result
		}
		result.alerts = make([]alertSnapshot, 0, len(alerts))

		// Sort alerts by severity: high first, then medium, then low.
		sort.SliceStable(alerts, func(i, j int) bool {
			return severityRank(string(alerts[i].Severity)) < severityRank(string(alerts[j].Severity))
		})

		for _, a := range alerts {
			result.alerts = append(result.alerts, alertSnapshot{
				severity: string(a.Severity),
				message:  a.Message,
			})
		}
	}

	return result
}

// newestRecords returns up to n records, newest first.
func newestRecords(posts []models.PostRecord, n int) []models.PostRecord {
	out := make([]models.PostRecord, 0, n)
	for i := len(posts) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, posts[i])
	}
	return out
}

func severityRank(s string) int {
	switch s {
	case "high":
		return 0
	case "medium":
		return 1
	case "low":
		return 2
	default:
		return 3
	}
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for schedule, posts and run health",
	Long: `Launch an interactive terminal dashboard showing today's schedule, the
newest ledger records, the last run report, metrics and alerts.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Pipeline == nil {
			return fmt.Errorf("pipeline not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
