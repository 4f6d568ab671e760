package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	promomcp "github.com/valter-silva-au/event-promo/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the promo MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the promo MCP server on stdio",
	Long: `Start the promo MCP server on stdio transport.

The server exposes read-only previews as MCP tools that AI assistants can
call: list_events, list_schedule, list_posts, get_report, get_metrics,
get_alerts. It never renders or publishes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Pipeline == nil || Ledger == nil {
			return fmt.Errorf("pipeline not initialized")
		}

		srv := promomcp.NewServer(Pipeline, Ledger, Reports, MetricsCalc, AlertEngine, appVersion).
			WithLocation(Location)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
