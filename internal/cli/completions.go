package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/event-promo/internal/observability"
)

// completeReportDates lists the dates that have a run report, newest first.
func completeReportDates(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 || Reports == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	dates, err := Reports.Dates()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var out []string
	for i := len(dates) - 1; i >= 0; i-- {
		if strings.HasPrefix(dates[i], toComplete) {
			out = append(out, dates[i])
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeEventIDs lists event ids recorded in the ledger, described by
// their most recent record.
func completeEventIDs(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if Ledger == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ledger, err := Ledger.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var order []string
	latest := make(map[string]string)
	for _, r := range ledger.Posts {
		if !strings.HasPrefix(r.EventID, toComplete) {
			continue
		}
		if _, ok := latest[r.EventID]; !ok {
			order = append(order, r.EventID)
		}
		mode := "live"
		if r.DryRun {
			mode = "dry run"
		}
		latest[r.EventID] = fmt.Sprintf("%s (%s) %s", r.Phase, mode, r.PostedAt.In(Location).Format("2006-01-02"))
	}

	out := make([]string, 0, len(order))
	for _, id := range order {
		out = append(out, id+"\t"+latest[id])
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeEventTypes lists the lifecycle event types written by a run.
func completeEventTypes(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		observability.TypePipelineStarted + "\tRun started",
		observability.TypePipelineFinished + "\tRun finished",
		observability.TypeUnitProcessed + "\tUnit posted or dry-run",
		observability.TypeUnitRejected + "\tUnit failed verification",
		observability.TypeUnitFailed + "\tUnit failed in a stage",
	}, cobra.ShellCompDirectiveNoFileComp
}

func completeEventLevels(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"INFO", "WARN", "ERROR"}, cobra.ShellCompDirectiveNoFileComp
}

func completeWindows(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"24h\tLast day",
		"7d\tLast week",
		"30d\tLast month",
	}, cobra.ShellCompDirectiveNoFileComp
}
