package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/event-promo/internal/core"
	promomcp "github.com/valter-silva-au/event-promo/internal/mcp"
)

var (
	scheduleExplain bool
	scheduleAt      string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show which events are due for a post",
	Long: `Evaluate every candidate event against the ledger and list the units a run
would process. Nothing is generated, rendered or recorded.

Use --explain to also list skipped events with the reason, and --at to
preview another instant (RFC 3339, "YYYY-MM-DD HH:MM" or "YYYY-MM-DD").`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Pipeline == nil {
			return fmt.Errorf("pipeline not initialized")
		}

		at := nowFunc().In(Location)
		if scheduleAt != "" {
			t, err := promomcp.ParseInstant(scheduleAt, Location)
			if err != nil {
				return fmt.Errorf("parsing --at: %w", err)
			}
			at = t
		}

		decisions, err := Pipeline.Plan(context.Background(), at)
		if err != nil {
			return fmt.Errorf("planning schedule: %w", err)
		}

		fmt.Printf("Schedule for %s\n\n", at.Format("Mon 2006-01-02 15:04 MST"))
		due := 0
		for _, d := range decisions {
			if !d.Scheduled() {
				continue
			}
			due++
			fmt.Printf("  %-10s %3dd  %s  (%s)\n", d.Phase, d.DaysUntil, d.Event.Title, d.Event.ID)
		}
		if due == 0 {
			fmt.Println("  No units due.")
		}

		if scheduleExplain {
			printSkipped(decisions)
		}
		return nil
	},
}

func printSkipped(decisions []core.Decision) {
	var skipped []core.Decision
	for _, d := range decisions {
		if !d.Scheduled() {
			skipped = append(skipped, d)
		}
	}
	if len(skipped) == 0 {
		return
	}
	fmt.Printf("\nSkipped (%d):\n", len(skipped))
	for _, d := range skipped {
		fmt.Printf("  %s (%s)\n    %s\n", d.Event.Title, d.Event.ID, d.Describe())
	}
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleExplain, "explain", false, "Also list skipped events and why")
	scheduleCmd.Flags().StringVar(&scheduleAt, "at", "", "Preview the schedule at another instant")
	rootCmd.AddCommand(scheduleCmd)
}
