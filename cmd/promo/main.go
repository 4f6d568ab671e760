package main

import (
	"fmt"
	"os"

	app "github.com/valter-silva-au/event-promo/internal"
	"github.com/valter-silva-au/event-promo/internal/cli"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	homeDir := app.ResolveHomeDir()

	a, err := app.NewApp(homeDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing promo: %v\n", err)
		os.Exit(1)
	}

	err = cli.Execute()
	_ = a.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
