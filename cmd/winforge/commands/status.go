package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/winforge/winforge/pkg/stores"
)

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-step status of the persisted run",
		Long: `Show the status of every step in the persisted state ledger.

A state with Pending or InProgress steps is resumable; InProgress means
the process was killed mid-step and the step will be re-attempted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			store := stores.NewFileStore(settings.ArtifactsDir)
			state, err := store.LoadState(cmd.Context())
			if err != nil {
				if errors.Is(err, stores.ErrNotFound) {
					fmt.Println("No run found. Create one with: winforge plan")
					return nil
				}
				return err
			}

			fmt.Printf("Run started %s (plan hash %s)\n\n", state.StartedAt.Format("2006-01-02 15:04:05"), state.PlanHash)
			for i := range state.Steps {
				step := &state.Steps[i]
				line := fmt.Sprintf("  %-12s %s", step.Status, step.ID)
				if step.Error != nil {
					line += ": " + step.Error.Message
				}
				fmt.Println(line)
			}

			summary := state.Summary()
			fmt.Printf("\n%d total: %d succeeded, %d failed, %d skipped, %d pending\n",
				summary.Total, summary.Succeeded, summary.Failed, summary.Skipped, summary.Pending)
			return nil
		},
	}

	return cmd
}
