package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/valter-silva-au/event-promo/pkg/models"
)

// Notifier sends alerts and run summaries to an external channel.
type Notifier interface {
	Notify(alerts []Alert) error
	NotifyRun(report *models.RunReport) error
}

type slackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a Notifier posting to a Slack incoming webhook.
func NewSlackNotifier(webhookURL string) Notifier {
	return &slackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify posts the alerts. An empty slice sends nothing.
func (s *slackNotifier) Notify(alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	return s.post(alertMessage(alerts))
}

// NotifyRun posts a summary of runs that published something or ended with
// errors. Quiet runs send nothing.
func (s *slackNotifier) NotifyRun(report *models.RunReport) error {
	if !ShouldNotifyRun(report) {
		return nil
	}
	return s.post(runMessage(report))
}

// ShouldNotifyRun reports whether a run is worth a message.
func ShouldNotifyRun(report *models.RunReport) bool {
	return report != nil && (report.VideosPublished > 0 || len(report.Errors) > 0)
}

func (s *slackNotifier) post(msg slackMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling slack message: %w", err)
	}
	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func header(text string) slackBlock {
	return slackBlock{Type: "header", Text: &slackText{Type: "plain_text", Text: text}}
}

func section(text string) slackBlock {
	return slackBlock{Type: "section", Text: &slackText{Type: "mrkdwn", Text: text}}
}

func alertMessage(alerts []Alert) slackMessage {
	blocks := []slackBlock{header("promo alert summary")}
	for i, alert := range alerts {
		if i > 0 {
			blocks = append(blocks, slackBlock{Type: "divider"})
		}
		blocks = append(blocks, section(fmt.Sprintf("%s *[%s]* %s\n_%s_",
			severityEmoji(alert.Severity),
			strings.ToUpper(string(alert.Severity)),
			alert.Message,
			alert.TriggeredAt.UTC().Format("2006-01-02 15:04 UTC"),
		)))
	}
	return slackMessage{Blocks: blocks}
}

func runMessage(r *models.RunReport) slackMessage {
	title := "promo run " + r.Date
	if r.DryRun {
		title += " (dry run)"
	}
	blocks := []slackBlock{
		header(title),
		section(fmt.Sprintf("Events: %d scraped, %d scheduled\nVideos: %d generated, %d published",
			r.EventsScraped, r.EventsScheduled, r.VideosGenerated, r.VideosPublished)),
	}
	var published []string
	for _, p := range r.Posts {
		if p.Published {
			published = append(published, fmt.Sprintf("• %s (%s) `%s`", p.Event, p.Phase, p.ExternalPostID))
		}
	}
	if len(published) > 0 {
		blocks = append(blocks, section("*Published*\n"+strings.Join(published, "\n")))
	}
	if len(r.Errors) > 0 {
		lines := make([]string, len(r.Errors))
		for i, e := range r.Errors {
			lines[i] = "• " + e
		}
		blocks = append(blocks, slackBlock{Type: "divider"}, section(severityEmoji(SeverityHigh)+" *Errors*\n"+strings.Join(lines, "\n")))
	}
	return slackMessage{Blocks: blocks}
}

func severityEmoji(severity AlertSeverity) string {
	switch severity {
	case SeverityHigh:
		return "\U0001f534"
	case SeverityMedium:
		return "\U0001f7e1"
	case SeverityLow:
		return "\U0001f535"
	default:
		return "❓"
	}
}
