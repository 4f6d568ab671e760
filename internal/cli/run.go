package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/event-promo/internal/core"
	"github.com/valter-silva-au/event-promo/internal/observability"
	"github.com/valter-silva-au/event-promo/pkg/models"
)

var (
	runDryRun           bool
	runPostOne          bool
	runSkipRender       bool
	runSkipVerification bool
	runEvent            string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the promotion pipeline once",
	Long: `Fetch the current events, decide which are due today and drive each due
unit through script generation, fact verification, rendering and publishing.

Without publisher credentials the run is forced into dry-run mode. Use
--event to promote a single event regardless of its campaign window.

The command exits non-zero when the run report lists any error.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Pipeline == nil {
			return fmt.Errorf("pipeline not initialized")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		report, err := Pipeline.Run(ctx, core.RunOptions{
			DryRun:           runDryRun,
			PostOne:          runPostOne,
			SkipRender:       runSkipRender,
			SkipVerification: runSkipVerification,
			EventID:          runEvent,
		})
		if report == nil {
			if err != nil {
				return fmt.Errorf("running pipeline: %w", err)
			}
			return fmt.Errorf("pipeline returned no report")
		}

		printReport(report)
		notifyRun(report)

		if len(report.Errors) > 0 {
			return fmt.Errorf("run finished with %d error(s)", len(report.Errors))
		}
		return nil
	},
}

// notifyRun sends the run summary to Slack when something worth reading
// happened. Delivery failures never fail the run.
func notifyRun(report *models.RunReport) {
	if Notifier == nil || !observability.ShouldNotifyRun(report) {
		return
	}
	if err := Notifier.NotifyRun(report); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: sending run notification: %v\n", err)
	}
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Render videos but never publish")
	runCmd.Flags().BoolVar(&runPostOne, "post-one", false, "Process only the first due unit")
	runCmd.Flags().BoolVar(&runSkipRender, "skip-render", false, "Stop each unit after its caption is written")
	runCmd.Flags().BoolVar(&runSkipVerification, "skip-verification", false, "Bypass the fact-check gate")
	runCmd.Flags().StringVar(&runEvent, "event", "", "Promote only this event (id or id fragment)")
	_ = runCmd.RegisterFlagCompletionFunc("event", completeEventIDs)
	rootCmd.AddCommand(runCmd)
}
