package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/event-promo/pkg/models"
)

var (
	reportJSON bool
	reportList bool
)

var reportCmd = &cobra.Command{
	Use:   "report [date]",
	Short: "Show a run report",
	Long: `Show the report of the run on the given date (YYYY-MM-DD), or of the most
recent run when no date is given. Use --list to see which dates have a report.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Reports == nil {
			return fmt.Errorf("report store not initialized")
		}

		if reportList {
			dates, err := Reports.Dates()
			if err != nil {
				return fmt.Errorf("listing reports: %w", err)
			}
			if len(dates) == 0 {
				fmt.Println("No run reports yet.")
				return nil
			}
			for _, d := range dates {
				fmt.Println(d)
			}
			return nil
		}

		var report *models.RunReport
		var err error
		if len(args) == 1 {
			if _, perr := time.Parse("2006-01-02", args[0]); perr != nil {
				return fmt.Errorf("invalid date %q (use YYYY-MM-DD)", args[0])
			}
			report, err = Reports.Get(args[0])
		} else {
			report, err = Reports.Latest()
		}
		if err != nil {
			return fmt.Errorf("loading report: %w", err)
		}
		if report == nil {
			fmt.Println("No run report found.")
			return nil
		}

		if reportJSON {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting report as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}
		printReport(report)
		return nil
	},
}

// printReport writes the human-readable run summary shared by run and report.
func printReport(r *models.RunReport) {
	mode := "live"
	if r.DryRun {
		mode = "dry run"
	}
	fmt.Printf("Run %s (%s)\n", r.Date, mode)
	if r.RunID != "" {
		fmt.Printf("  %-20s %s\n", "Run ID:", r.RunID)
	}
	if !r.StartedAt.IsZero() && !r.FinishedAt.IsZero() {
		fmt.Printf("  %-20s %s\n", "Duration:", r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	}
	fmt.Printf("  %-20s %d\n", "Events scraped:", r.EventsScraped)
	fmt.Printf("  %-20s %d\n", "Events scheduled:", r.EventsScheduled)
	fmt.Printf("  %-20s %d\n", "Videos generated:", r.VideosGenerated)
	fmt.Printf("  %-20s %d\n", "Videos published:", r.VideosPublished)

	if len(r.Posts) > 0 {
		fmt.Println("\n  Posts:")
		for _, p := range r.Posts {
			fmt.Printf("    %-15s %-10s %s\n", p.Outcome, p.Phase, p.Event)
			if p.ExternalPostID != "" {
				fmt.Printf("    %-15s post id %s\n", "", p.ExternalPostID)
			}
			if p.Artifact != "" {
				fmt.Printf("    %-15s %s\n", "", p.Artifact)
			}
		}
	}

	if len(r.Errors) > 0 {
		fmt.Printf("\n  Errors (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Output the report as JSON")
	reportCmd.Flags().BoolVar(&reportList, "list", false, "List dates that have a report")
	reportCmd.ValidArgsFunction = completeReportDates
	rootCmd.AddCommand(reportCmd)
}
