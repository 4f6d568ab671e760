package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "promo",
	Short: "Event promo - scheduled promo videos for academy events",
	Long: `Event promo (promo) turns upcoming academy events into short promo videos
and publishes them on a fixed campaign schedule.

Each run scrapes the event listing, decides which events are due for an
awareness, reminder or urgency post, generates and fact-checks a script,
renders the video and publishes it. Every post is recorded in a ledger so
no event is promoted twice in the same phase.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("promo %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
