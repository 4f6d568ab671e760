package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var eventsJSON bool

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List candidate events from the event source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Pipeline == nil {
			return fmt.Errorf("pipeline not initialized")
		}

		events, err := Pipeline.ListEvents(context.Background())
		if err != nil {
			return fmt.Errorf("listing events: %w", err)
		}

		if eventsJSON {
			data, err := json.MarshalIndent(events, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting events as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(events) == 0 {
			fmt.Println("No events found.")
			return nil
		}

		fmt.Printf("%-40s %-24s %-12s %s\n", "ID", "DATE", "TYPE", "TITLE")
		for _, ev := range events {
			fmt.Printf("%-40s %-24s %-12s %s\n", ev.ID, ev.Date, ev.Type, ev.Title)
		}
		fmt.Printf("\n%d event(s)\n", len(events))
		return nil
	},
}

func init() {
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Output events as JSON")
	rootCmd.AddCommand(eventsCmd)
}
