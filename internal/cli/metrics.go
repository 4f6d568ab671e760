package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	promomcp "github.com/valter-silva-au/event-promo/internal/mcp"
)

const defaultMetricsWindow = "7d"

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display run and post metrics",
	Long: `Display aggregated metrics derived from the event log.

Metrics include run counts, unit outcomes (published, dry run, rejected,
failed) and posts per campaign phase.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (observability may be disabled)")
		}

		sinceTime, err := parseSinceDuration(metricsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		if metricsJSON {
			data, err := json.MarshalIndent(metrics, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Printf("  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Printf("  %-24s %d\n", "Runs:", metrics.Runs)
		fmt.Printf("  %-24s %d\n", "Dry runs:", metrics.DryRuns)
		fmt.Printf("  %-24s %d\n", "Runs with errors:", metrics.RunsWithError)
		fmt.Printf("  %-24s %d\n", "Units processed:", metrics.Units)
		fmt.Printf("  %-24s %d\n", "Published:", metrics.Published)
		fmt.Printf("  %-24s %d\n", "Dry-run posts:", metrics.DryRunPosts)
		fmt.Printf("  %-24s %d\n", "Not rendered:", metrics.NotRendered)
		fmt.Printf("  %-24s %d\n", "Rejected:", metrics.Rejected)
		fmt.Printf("  %-24s %d\n", "Failed:", metrics.Failed)
		fmt.Printf("  %-24s %d\n", "Publish failed:", metrics.PublishFailed)

		if len(metrics.ByPhase) > 0 {
			fmt.Println("\n  Units by phase:")
			phases := make([]string, 0, len(metrics.ByPhase))
			for phase := range metrics.ByPhase {
				phases = append(phases, phase)
			}
			sort.Strings(phases)
			for _, phase := range phases {
				fmt.Printf("    %-20s %d\n", phase+":", metrics.ByPhase[phase])
			}
		}

		if metrics.LastRunAt != nil {
			fmt.Printf("\n  %-24s %s\n", "Last run:", metrics.LastRunAt.In(Location).Format(time.RFC3339))
		}
		if metrics.OldestEvent != nil {
			fmt.Printf("  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Printf("  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}

		return nil
	},
}

// parseSinceDuration parses a human-friendly window like "7d" or "24h" and
// returns the corresponding time in the past. Empty means 7d.
func parseSinceDuration(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = defaultMetricsWindow
	}
	return promomcp.ParseSince(s, nowFunc().UTC())
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", defaultMetricsWindow, "Time window for metrics (e.g. 7d, 30d, 24h)")
	_ = metricsCmd.RegisterFlagCompletionFunc("since", completeWindows)
	rootCmd.AddCommand(metricsCmd)
}
