package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/winforge/winforge/pkg/catalog"
	"github.com/winforge/winforge/pkg/engine"
	"github.com/winforge/winforge/pkg/stores"
)

func newPlanCommand() *cobra.Command {
	var (
		catalogPath string
		profilePath string
		selectIDs   []string
		startOver   bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build an execution plan from a catalog selection",
		Long: `Build a deterministic execution plan from the catalog and persist it,
together with a fresh state ledger, into the artifacts directory.

Selection comes from a profile file, explicit --select flags, or both.
Steps are ordered by (priority, category, display name).`,
		Example: `  # Plan everything a profile selects
  winforge plan --catalog catalog.json --profile dev.yaml

  # Plan an explicit selection
  winforge plan --catalog catalog.json --select dev.git --select dev.vscode`,
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

			loader := catalog.NewLoader()
			items, err := loader.Load(catalogPath)
			if err != nil {
				return err
			}

			selected := append([]string{}, selectIDs...)
			if profilePath != "" {
				profile, err := loader.LoadProfile(profilePath)
				if err != nil {
					return err
				}
				items = catalog.ApplyProfile(items, profile)
				selected = append(selected, profile.Select...)
			}

			store := stores.NewFileStore(settings.ArtifactsDir)
			ctx := cmd.Context()

			if store.HasState() {
				if !startOver {
					return fmt.Errorf("artifacts directory %s already holds a run; "+
						"use 'winforge apply --resume' or pass --start-over to archive it",
						settings.ArtifactsDir)
				}
				archived, err := store.Archive(ctx)
				if err != nil {
					return err
				}
				logger.Infof("archived previous run to %s", archived)
			}

			plan := engine.BuildPlan(items, selected)
			state := engine.InitState(plan)

			if err := store.SavePlan(ctx, plan); err != nil {
				return err
			}
			if err := store.SaveState(ctx, state); err != nil {
				return err
			}

			logger.Infof("plan written: %d steps, hash %s", len(plan.Steps), state.PlanHash)
			fmt.Printf("Plan: %d steps (hash %s)\n", len(plan.Steps), state.PlanHash)
			for i, step := range plan.Steps {
				fmt.Printf("  %2d. [%s] %s\n", i+1, step.Type, step.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&catalogPath, "catalog", "c", "catalog.json", "catalog file")
	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "profile file (YAML)")
	cmd.Flags().StringArrayVar(&selectIDs, "select", nil, "item id to include (repeatable)")
	cmd.Flags().BoolVar(&startOver, "start-over", false, "archive existing artifacts before planning")

	return cmd
}
