package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	logLevel   string
)

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "homeforge",
		Short: "Homeforge - idempotent personal machine provisioning",
		Long: `Homeforge provisions a personal machine from a dotfiles repository:
shell environment, development tooling, desktop features, container and
infrastructure-as-code tooling.

Runs are idempotent: completed steps are remembered in a local state
database and skipped on re-runs within the same day, and every file the
tool replaces is backed up first.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "minimum log level (debug, info, warn, error)")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newDetectCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}
