package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/winforge/winforge/pkg/telemetry"
)

// Runner drives one plan to completion: it walks the plan's steps in their
// stored order, applies resume-status filtering, dispatches each eligible
// step to its executor, reconciles the outcome into the state ledger, and
// persists the ledger after every single transition. The first step
// failure stops the run; steps may depend on earlier ones (a base runtime
// before an app that needs it), so continuing past a failure risks
// cascading confusing failures.
//
// The Runner owns the State exclusively for the duration of one run; no
// other component mutates it concurrently.
type Runner struct {
	install   *InstallExecutor
	script    *ScriptExecutor
	persister StatePersister
	restarter RestartPrompter
	logger    *telemetry.Logger
	metrics   *telemetry.Metrics
}

// NewRunner creates a plan runner. The restarter may be nil when no
// explorer-restart collaborator is available.
func NewRunner(
	install *InstallExecutor,
	script *ScriptExecutor,
	persister StatePersister,
	restarter RestartPrompter,
	logger *telemetry.Logger,
	metrics *telemetry.Metrics,
) *Runner {
	return &Runner{
		install:   install,
		script:    script,
		persister: persister,
		restarter: restarter,
		logger:    logger.NewComponentLogger("runner"),
		metrics:   metrics,
	}
}

// Run executes the plan against the state ledger, mutating and persisting
// the state step by step. Step failures are recorded in the state and stop
// the run without an error return; only integrity and persistence
// conditions propagate. The returned summary includes steps attempted in
// this invocation and steps still pending for a future resume.
func (r *Runner) Run(
	ctx context.Context,
	plan *Plan,
	state *State,
	items []Item,
	rc *RunContext,
	resume ResumeOption,
) (RunSummary, error) {
	if err := rc.Mode.Validate(); err != nil {
		return RunSummary{}, NewIntegrityError("invalid run mode", err).WithCode(ErrCodeUnknownRunMode)
	}
	if err := resume.Validate(); err != nil {
		return RunSummary{}, NewIntegrityError("invalid resume option", err)
	}

	itemsByID := make(map[string]Item, len(items))
	for _, item := range items {
		itemsByID[item.ID] = item
	}

	log := r.logger.WithRunID(rc.RunID)
	log.Infof("starting run: %d steps, mode=%s, resume=%s", len(plan.Steps), rc.Mode, resume)
	r.metrics.RecordRunStarted()
	runStart := time.Now()

	attempted := 0
	explorerOwed := false

	// Plan order is authoritative. Re-sorting here would break the
	// resumability guarantees of persisted plans.
	for _, step := range plan.Steps {
		stateStep, ok := state.FindStep(step.ID)
		if !ok {
			// Corrupted plan/state pairing for this step: touch nothing.
			log.Warnf("step %s has no state entry, skipping", step.ID)
			continue
		}

		if !resume.Eligible(stateStep.Status) {
			log.WithStepID(step.ID).Debugf("skipping step in status %s", stateStep.Status)
			continue
		}

		item, ok := itemsByID[step.ID]
		if !ok {
			// The plan references an item the catalog no longer has.
			// Fatal: the pairing cannot be trusted beyond this point.
			if err := r.markFailed(ctx, state, step.ID, Outcome{
				Error: &StepError{Message: fmt.Sprintf("catalog item %s not found for planned step", step.ID)},
			}); err != nil {
				return r.summarize(state, attempted), err
			}
			log.WithStepID(step.ID).Error("catalog item not found, stopping run")
			break
		}

		attempted++
		stepStart := time.Now()
		if err := r.markInProgress(ctx, state, step.ID, stepStart); err != nil {
			return r.summarize(state, attempted), err
		}

		outcome, err := r.dispatch(ctx, step, item, rc)
		if err != nil {
			// Integrity errors are never downgraded.
			return r.summarize(state, attempted), err
		}

		r.metrics.RecordStep(string(step.Type), outcomeStatus(outcome), time.Since(stepStart))

		if outcome.Success {
			if err := r.markSucceeded(ctx, state, step.ID, outcome); err != nil {
				return r.summarize(state, attempted), err
			}
			if outcome.ExplorerRequired {
				explorerOwed = true
			}
			log.WithStepID(step.ID).Info("step succeeded")
			continue
		}

		if err := r.markFailed(ctx, state, step.ID, outcome); err != nil {
			return r.summarize(state, attempted), err
		}
		log.WithStepID(step.ID).Errorf("step failed: %s", outcome.Error.Message)
		break
	}

	// One prompt for the whole run, never one per step.
	if explorerOwed && r.restarter != nil {
		r.restarter.PromptExplorerRestart(ctx)
	}

	summary := r.summarize(state, attempted)
	r.metrics.RecordRunCompleted(runStatus(summary), time.Since(runStart))
	log.Infof("run finished: %d attempted, %d succeeded, %d failed, %d pending",
		summary.Attempted, summary.Succeeded, summary.Failed, summary.Pending)

	return summary, nil
}

// dispatch routes the step to its executor and downgrades executor panics
// to a failure outcome, so a misbehaving executor can never crash the
// runner or leave the persisted state malformed.
func (r *Runner) dispatch(ctx context.Context, step Step, item Item, rc *RunContext) (outcome Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.RecordError(string(ErrorClassExecution))
			outcome = Outcome{
				Error: &StepError{Message: fmt.Sprintf("step executor panicked: %v", rec)},
			}
			err = nil
		}
	}()

	switch step.Type {
	case ItemTypeApp:
		return r.install.Execute(ctx, step, item, rc)
	case ItemTypeScript:
		return r.script.Execute(ctx, step, item, rc)
	default:
		return Outcome{}, NewIntegrityError(fmt.Sprintf("unknown step type %q", step.Type), nil).
			WithStep(step.ID).
			WithCode(ErrCodeUnknownStepType)
	}
}

// markInProgress transitions a step to InProgress and persists, so a crash
// mid-step is visible on next load as InProgress rather than Pending.
func (r *Runner) markInProgress(ctx context.Context, state *State, stepID string, startedAt time.Time) error {
	status := StepStatusInProgress
	if err := state.UpdateStep(stepID, StepUpdate{
		Status:    &status,
		StartedAt: &startedAt,
	}); err != nil {
		return err
	}
	return r.persist(ctx, state)
}

// markSucceeded transitions a step to Succeeded, clearing any error from a
// previous attempt, and persists.
func (r *Runner) markSucceeded(ctx context.Context, state *State, stepID string, outcome Outcome) error {
	status := StepStatusSucceeded
	endedAt := time.Now()
	if err := state.UpdateStep(stepID, StepUpdate{
		Status:     &status,
		EndedAt:    &endedAt,
		ClearError: true,
		Notes:      noteList(outcome.Notes),
		Command:    optional(outcome.Command),
		TargetPath: optional(strings.Join(outcome.TargetPaths, "; ")),
	}); err != nil {
		return err
	}
	return r.persist(ctx, state)
}

// markFailed transitions a step to Failed with the recorded outcome error
// and persists.
func (r *Runner) markFailed(ctx context.Context, state *State, stepID string, outcome Outcome) error {
	status := StepStatusFailed
	endedAt := time.Now()
	stepErr := outcome.Error
	if stepErr == nil {
		stepErr = &StepError{Message: "step failed without a recorded error"}
	}
	if err := state.UpdateStep(stepID, StepUpdate{
		Status:     &status,
		EndedAt:    &endedAt,
		Error:      stepErr,
		Notes:      noteList(outcome.Notes),
		Command:    optional(outcome.Command),
		TargetPath: optional(strings.Join(outcome.TargetPaths, "; ")),
	}); err != nil {
		return err
	}
	return r.persist(ctx, state)
}

// persist saves the state synchronously; the runner never proceeds to the
// next step before the previous transition is durable.
func (r *Runner) persist(ctx context.Context, state *State) error {
	if err := r.persister.SaveState(ctx, state); err != nil {
		r.metrics.RecordError(string(ErrorClassIntegrity))
		return NewIntegrityError("failed to persist state", err).WithCode(ErrCodePersistenceFailed)
	}
	return nil
}

// summarize counts current statuses and stamps the attempted counter.
func (r *Runner) summarize(state *State, attempted int) RunSummary {
	summary := state.Summary()
	summary.Attempted = attempted
	return summary
}

// noteList normalizes outcome notes for a step update: an update always
// replaces the notes, an empty outcome yields an empty list.
func noteList(notes []string) []string {
	if notes == nil {
		return []string{}
	}
	return notes
}

// optional converts a possibly empty string to the nullable form recorded
// in the state ledger.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// outcomeStatus renders the outcome for metric labels.
func outcomeStatus(outcome Outcome) string {
	if outcome.Success {
		return string(StepStatusSucceeded)
	}
	return string(StepStatusFailed)
}

// runStatus renders the terminal run status for metric labels.
func runStatus(summary RunSummary) string {
	if summary.Failed > 0 {
		return "failed"
	}
	if summary.Pending > 0 {
		return "partial"
	}
	return "succeeded"
}
