package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/winforge/winforge/pkg/catalog"
	"github.com/winforge/winforge/pkg/engine"
	"github.com/winforge/winforge/pkg/scripts"
	"github.com/winforge/winforge/pkg/stores"
	"github.com/winforge/winforge/pkg/telemetry"
	"github.com/winforge/winforge/pkg/winget"
)

// consolePrompter tells the user a shell restart is owed. Prompted at
// most once per run, after the whole run loop has finished.
type consolePrompter struct{}

func (consolePrompter) PromptExplorerRestart(_ context.Context) {
	fmt.Println("One or more tweaks require an Explorer restart to take effect.")
	fmt.Println("Restart it with: taskkill /f /im explorer.exe && start explorer.exe")
}

func newApplyCommand() *cobra.Command {
	var (
		catalogPath string
		profilePath string
		mode        string
		resume      string
		failStepID  string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Execute the persisted plan",
		Long: `Execute the plan in the artifacts directory, updating and persisting the
state ledger after every step.

The run stops at the first failing step. Re-running with --resume pending
continues where the previous run left off; --resume failed re-attempts
only failed steps.`,
		Example: `  # Execute the plan for real
  winforge apply --catalog catalog.json

  # Preview without side effects
  winforge apply --catalog catalog.json --mode dry-run

  # Resume an interrupted run
  winforge apply --catalog catalog.json --resume pending`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			logger, err := newLogger(settings)
			if err != nil {
				return err
			}
			defer logger.Close()

			metrics, err := telemetry.NewMetrics(settings.Metrics)
			if err != nil {
				return err
			}

			loader := catalog.NewLoader()
			items, err := loader.Load(catalogPath)
			if err != nil {
				return err
			}
			if profilePath != "" {
				profile, err := loader.LoadProfile(profilePath)
				if err != nil {
					return err
				}
				items = catalog.ApplyProfile(items, profile)
			}

			store := stores.NewFileStore(settings.ArtifactsDir)
			ctx := cmd.Context()

			plan, err := store.LoadPlan(ctx)
			if err != nil {
				return err
			}
			state, err := store.LoadState(ctx)
			if err != nil {
				return err
			}
			if err := engine.VerifyAlignment(plan, state); err != nil {
				return err
			}

			rc := &engine.RunContext{
				RunID:      uuid.New().String(),
				Mode:       engine.RunMode(mode),
				FailStepID: failStepID,
				LogsDir:    store.LogsDir(),
				ScriptRoot: settings.ScriptRoot,
			}

			runner := engine.NewRunner(
				engine.NewInstallExecutor(winget.Exec{}, logger),
				engine.NewScriptExecutor(scripts.PowerShell{}, logger),
				store,
				consolePrompter{},
				logger,
				metrics,
			)

			summary, err := runner.Run(ctx, plan, state, items, rc, engine.ResumeOption(resume))
			if err != nil {
				return err
			}

			printSummary(summary, state)
			if s := metrics.Summary(); s != "" && verbose {
				fmt.Println("\nMetrics:")
				fmt.Println(s)
			}
			if summary.Failed > 0 {
				return fmt.Errorf("run stopped: %d step(s) failed", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&catalogPath, "catalog", "c", "catalog.json", "catalog file")
	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "profile file (YAML)")
	cmd.Flags().StringVarP(&mode, "mode", "m", string(engine.ModeReal), "run mode: dry-run, mock, or real")
	cmd.Flags().StringVarP(&resume, "resume", "r", string(engine.ResumeAll), "resume option: all, pending, or failed")
	cmd.Flags().StringVar(&failStepID, "fail-step", "", "force a synthetic failure of this step in mock mode")
	_ = cmd.Flags().MarkHidden("fail-step")

	return cmd
}

// printSummary renders the final run report. Failed steps show their
// recorded error message.
func printSummary(summary engine.RunSummary, state *engine.State) {
	fmt.Printf("\nRun summary: %d attempted, %d succeeded, %d failed, %d skipped, %d pending\n",
		summary.Attempted, summary.Succeeded, summary.Failed, summary.Skipped, summary.Pending)

	for i := range state.Steps {
		step := &state.Steps[i]
		if step.Status != engine.StepStatusFailed || step.Error == nil {
			continue
		}
		fmt.Printf("  FAILED %s: %s\n", step.ID, step.Error.Message)
	}

	if summary.Pending > 0 {
		fmt.Printf("Resume the remaining %d step(s) with: winforge apply --resume pending\n", summary.Pending)
	}
}
