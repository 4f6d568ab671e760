package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/event-promo/pkg/models"
)

var (
	ledgerEvent string
	ledgerJSON  bool
	ledgerLive  bool
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "List recorded posts",
	Long: `List the post records in the state ledger, oldest first.

Dry-run records are shown but never block a later post. Use --live to hide
them and --event to show the history of one event.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Ledger == nil {
			return fmt.Errorf("ledger not initialized")
		}

		ledger, err := Ledger.Load()
		if err != nil {
			return fmt.Errorf("loading ledger: %w", err)
		}

		records := filterRecords(ledger.Posts, ledgerEvent, ledgerLive)

		if ledgerJSON {
			data, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting ledger as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(records) == 0 {
			fmt.Println("No post records.")
			return nil
		}

		fmt.Printf("%-17s %-10s %-8s %-20s %s\n", "POSTED", "PHASE", "MODE", "POST ID", "EVENT")
		for _, r := range records {
			mode := "live"
			if r.DryRun {
				mode = "dry-run"
			}
			postID := r.ExternalPostID
			if postID == "" {
				postID = "-"
			}
			fmt.Printf("%-17s %-10s %-8s %-20s %s\n",
				r.PostedAt.In(Location).Format("2006-01-02 15:04"), r.Phase, mode, postID, r.EventID)
		}
		fmt.Printf("\n%d record(s)\n", len(records))
		return nil
	},
}

func filterRecords(posts []models.PostRecord, eventID string, liveOnly bool) []models.PostRecord {
	out := make([]models.PostRecord, 0, len(posts))
	for _, p := range posts {
		if eventID != "" && !strings.Contains(p.EventID, eventID) {
			continue
		}
		if liveOnly && p.DryRun {
			continue
		}
		out = append(out, p)
	}
	return out
}

func init() {
	ledgerCmd.Flags().StringVar(&ledgerEvent, "event", "", "Only show records whose event id contains this text")
	ledgerCmd.Flags().BoolVar(&ledgerLive, "live", false, "Hide dry-run records")
	ledgerCmd.Flags().BoolVar(&ledgerJSON, "json", false, "Output records as JSON")
	_ = ledgerCmd.RegisterFlagCompletionFunc("event", completeEventIDs)
	rootCmd.AddCommand(ledgerCmd)
}
