package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/winforge/winforge/pkg/engine"
	"github.com/winforge/winforge/pkg/stores"
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a detailed report of the last run",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			store := stores.NewFileStore(settings.ArtifactsDir)
			ctx := cmd.Context()

			state, err := store.LoadState(ctx)
			if err != nil {
				if errors.Is(err, stores.ErrNotFound) {
					fmt.Println("No run found. Create one with: winforge plan")
					return nil
				}
				return err
			}
			plan, err := store.LoadPlan(ctx)
			if err != nil {
				return err
			}
			if err := engine.VerifyAlignment(plan, state); err != nil {
				return err
			}

			fmt.Printf("Plan generated %s on %s (%s)\n",
				plan.GeneratedAt.Format("2006-01-02 15:04:05"),
				plan.Environment.ComputerName,
				plan.Environment.OSVersion)
			fmt.Printf("Run started %s, plan hash %s\n\n", state.StartedAt.Format("2006-01-02 15:04:05"), state.PlanHash)

			for i := range state.Steps {
				step := &state.Steps[i]
				fmt.Printf("%2d. %-12s %s\n", i+1, step.Status, step.ID)
				if step.StartedAt != nil && step.EndedAt != nil {
					fmt.Printf("      duration: %s\n", step.EndedAt.Sub(*step.StartedAt).Round(10*time.Millisecond))
				}
				if step.Command != nil {
					fmt.Printf("      command:  %s\n", *step.Command)
				}
				if step.TargetPath != nil {
					fmt.Printf("      target:   %s\n", *step.TargetPath)
				}
				if len(step.Notes) > 0 {
					fmt.Printf("      notes:    %s\n", strings.Join(step.Notes, ", "))
				}
				if step.Error != nil {
					fmt.Printf("      error:    %s", step.Error.Message)
					if step.Error.ExitCode != nil {
						fmt.Printf(" (exit code %d)", *step.Error.ExitCode)
					}
					fmt.Println()
				}
			}

			summary := state.Summary()
			fmt.Printf("\n%d total: %d succeeded, %d failed, %d skipped, %d pending\n",
				summary.Total, summary.Succeeded, summary.Failed, summary.Skipped, summary.Pending)
			return nil
		},
	}

	return cmd
}
