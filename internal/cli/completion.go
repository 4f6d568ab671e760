package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var completionInstall bool

// completionShell describes how one shell loads and installs promo's
// completion script.
type completionShell struct {
	generate func(w io.Writer) error
	hints    []string
	// installPath returns the user-local target for --install; nil means
	// the shell has no automatic install.
	installPath func(home string) string
	installNote []string
}

var completionShells = map[string]completionShell{
	"bash": {
		generate: func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
		hints:    []string{`eval "$(promo completion bash)"`},
		installPath: func(home string) string {
			return filepath.Join(home, ".local", "share", "bash-completion", "completions", "promo")
		},
		installNote: []string{"Restart your shell or source the file to enable it."},
	},
	"zsh": {
		generate: func(w io.Writer) error { return rootCmd.GenZshCompletion(w) },
		hints:    []string{`eval "$(promo completion zsh)"`},
		installPath: func(home string) string {
			return filepath.Join(home, ".local", "share", "zsh", "site-functions", "_promo")
		},
		installNote: []string{
			"Make sure the directory is in your fpath, e.g. in ~/.zshrc:",
			"  fpath=(~/.local/share/zsh/site-functions $fpath)",
			"  autoload -Uz compinit && compinit",
		},
	},
	"fish": {
		generate: func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
		hints:    []string{"promo completion fish | source"},
		installPath: func(home string) string {
			return filepath.Join(home, ".config", "fish", "completions", "promo.fish")
		},
		installNote: []string{"New fish sessions pick it up automatically."},
	},
	"powershell": {
		generate: func(w io.Writer) error { return rootCmd.GenPowerShellCompletionWithDesc(w) },
		hints:    []string{"promo completion powershell | Out-String | Invoke-Expression"},
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Set up shell completions for promo",
	Long: `Print or install the shell completion script for promo.

Besides commands and flags, completions cover report dates, event ids known
from the ledger (run --event, ledger --event) and event log filters
(history --type, --level).

Supported shells: bash, zsh, fish, powershell

  promo completion zsh --install   # write to a user-local completion dir
  eval "$(promo completion bash)"  # load into the current session only`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MaximumNArgs(1),
	RunE:      runCompletion,
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Install completions into a user-local completion directory")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	shell, ok := completionShells[args[0]]
	if !ok {
		return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell)", args[0])
	}

	if completionInstall {
		return installCompletion(cmd, args[0], shell)
	}

	// Hints go to stderr so the script can be piped or eval'd.
	w := cmd.ErrOrStderr()
	_, _ = fmt.Fprintln(w, "# To load completions in your current session:")
	for _, h := range shell.hints {
		_, _ = fmt.Fprintf(w, "#   %s\n", h)
	}
	if shell.installPath != nil {
		_, _ = fmt.Fprintf(w, "# To install permanently:\n#   promo completion %s --install\n", args[0])
	}
	return shell.generate(cmd.OutOrStdout())
}

func installCompletion(cmd *cobra.Command, name string, shell completionShell) error {
	if shell.installPath == nil {
		return fmt.Errorf("automatic install is not supported for %s; run 'promo completion %s' and add the output to your profile", name, name)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("detecting home directory: %w", err)
	}

	target := shell.installPath(home)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}
	if err := writeCompletionFile(target, shell.generate); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s completions installed to %s\n", name, target)
	for _, line := range shell.installNote {
		_, _ = fmt.Fprintln(out, line)
	}
	return nil
}

// writeCompletionFile writes the script produced by generate to target and
// reports close errors.
func writeCompletionFile(target string, generate func(io.Writer) error) error {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}
	writeErr := generate(f)
	closeErr := f.Close()
	if writeErr != nil {
		return fmt.Errorf("writing completion file %s: %w", target, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}
	return nil
}
