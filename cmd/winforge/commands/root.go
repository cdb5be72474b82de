// Package commands wires the winforge CLI: building plans from catalog
// selections, applying them with resume support, and presenting persisted
// state. Presentation lives here; the engine only exposes data.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	settingsPath string
	artifactsDir string
	verbose      bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "winforge",
		Short: "winforge - Windows PC provisioning tool",
		Long: `winforge provisions a Windows PC from a catalog of applications and
configuration scripts.

It builds an ordered execution plan from your selection, runs each step
(package install or script) in priority order, and persists progress after
every step so an interrupted run can be resumed.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&settingsPath, "settings", "s", "", "settings file path")
	rootCmd.PersistentFlags().StringVarP(&artifactsDir, "artifacts", "a", "", "artifacts directory (plan, state, logs)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newApplyCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newReportCommand())

	return rootCmd
}
