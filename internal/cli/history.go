package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/event-promo/internal/observability"
)

var (
	historySince string
	historyType  string
	historyRun   string
	historyLevel string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show pipeline lifecycle events",
	Long: `Show the lifecycle events recorded in the event log: run starts and
finishes and the outcome of every processed unit.

Filter with --type (e.g. unit.rejected), --level (INFO, WARN, ERROR) or
--run to follow a single run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not initialized (observability may be disabled)")
		}

		since, err := parseSinceDuration(historySince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		events, err := EventLog.Read(observability.EventFilter{
			Since: &since,
			Type:  historyType,
			Level: strings.ToUpper(historyLevel),
			RunID: historyRun,
		})
		if err != nil {
			return fmt.Errorf("reading event log: %w", err)
		}

		if len(events) == 0 {
			fmt.Println("No events recorded.")
			return nil
		}

		for _, ev := range events {
			fmt.Printf("%s  %-5s %-18s %s\n",
				ev.Time.In(Location).Format("2006-01-02 15:04:05"), ev.Level, ev.Type, describeData(ev.Data))
		}
		return nil
	},
}

// describeData renders event data as sorted key=value pairs.
func describeData(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, data[k]))
	}
	return strings.Join(parts, " ")
}

func init() {
	historyCmd.Flags().StringVar(&historySince, "since", defaultMetricsWindow, "Time window (e.g. 7d, 24h)")
	historyCmd.Flags().StringVar(&historyType, "type", "", "Only show events of this type")
	historyCmd.Flags().StringVar(&historyLevel, "level", "", "Only show events of this level")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Only show events of this run id")
	_ = historyCmd.RegisterFlagCompletionFunc("type", completeEventTypes)
	_ = historyCmd.RegisterFlagCompletionFunc("level", completeEventLevels)
	_ = historyCmd.RegisterFlagCompletionFunc("since", completeWindows)
	rootCmd.AddCommand(historyCmd)
}
