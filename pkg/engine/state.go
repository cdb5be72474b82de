package engine

import (
	"fmt"
	"time"
)

// InitState builds a fresh state ledger for a plan: one StateStep per plan
// step at the matching index, all Pending with nil timestamps and errors.
// The resulting index alignment (len equal, IDs equal per index) is the
// invariant every later lookup relies on.
func InitState(plan *Plan) *State {
	steps := make([]StateStep, len(plan.Steps))
	for i, step := range plan.Steps {
		steps[i] = StateStep{
			ID:     step.ID,
			Status: StepStatusPending,
			Notes:  []string{},
		}
	}

	return &State{
		StateVersion: StateVersion,
		PlanHash:     ComputeHash(plan.Steps),
		StartedAt:    time.Now(),
		Steps:        steps,
	}
}

// VerifyAlignment checks the plan/state pairing invariant: equal length
// and matching step IDs at every index. Used when plan and state are
// reconstructed independently from disk.
func VerifyAlignment(plan *Plan, state *State) error {
	if len(plan.Steps) != len(state.Steps) {
		return NewIntegrityError(
			fmt.Sprintf("state has %d steps, plan has %d", len(state.Steps), len(plan.Steps)), nil).
			WithCode(ErrCodeStateMismatch)
	}
	for i := range plan.Steps {
		if plan.Steps[i].ID != state.Steps[i].ID {
			return NewIntegrityError(
				fmt.Sprintf("state step %q does not match plan step %q at index %d",
					state.Steps[i].ID, plan.Steps[i].ID, i), nil).
				WithCode(ErrCodeStateMismatch)
		}
	}
	if got := ComputeHash(plan.Steps); got != state.PlanHash {
		return NewIntegrityError(
			fmt.Sprintf("state plan hash %s does not match plan hash %s", state.PlanHash, got), nil).
			WithCode(ErrCodeStateMismatch)
	}
	return nil
}

// FindStep looks up a state step by ID. Lookup is by ID rather than index
// because plan and state may be reconstructed independently across runs.
// The second return value reports whether the step exists; callers decide
// how to react to a miss.
func (s *State) FindStep(id string) (*StateStep, bool) {
	for i := range s.Steps {
		if s.Steps[i].ID == id {
			return &s.Steps[i], true
		}
	}
	return nil, false
}

// StepUpdate is a partial update applied to one state step. Nil fields are
// left untouched. ClearError explicitly clears a previously recorded
// error, used when a re-attempted step succeeds.
type StepUpdate struct {
	// Status replaces the step status when non-nil.
	Status *StepStatus

	// StartedAt replaces the start timestamp when non-nil.
	StartedAt *time.Time

	// EndedAt replaces the end timestamp when non-nil.
	EndedAt *time.Time

	// Error replaces the recorded error when non-nil.
	Error *StepError

	// ClearError resets the recorded error to nil.
	ClearError bool

	// Notes replaces the audit tag list when non-nil.
	Notes []string

	// Command replaces the recorded invocation string when non-nil.
	Command *string

	// TargetPath replaces the recorded target path when non-nil.
	TargetPath *string
}

// UpdateStep applies a partial update to the step with the given ID,
// mutating the state in place. A missing ID is an integrity error, never a
// silent no-op: it means the plan/state pairing cannot be trusted.
// Persistence is the caller's responsibility.
func (s *State) UpdateStep(id string, update StepUpdate) error {
	step, ok := s.FindStep(id)
	if !ok {
		return NewIntegrityError("step not found in state", nil).
			WithStep(id).
			WithCode(ErrCodeStepNotFound)
	}

	if update.Status != nil {
		if err := update.Status.Validate(); err != nil {
			return NewIntegrityError("invalid status in step update", err).WithStep(id)
		}
		step.Status = *update.Status
	}
	if update.StartedAt != nil {
		step.StartedAt = update.StartedAt
	}
	if update.EndedAt != nil {
		step.EndedAt = update.EndedAt
	}
	if update.ClearError {
		step.Error = nil
	} else if update.Error != nil {
		step.Error = update.Error
	}
	if update.Notes != nil {
		step.Notes = update.Notes
	}
	if update.Command != nil {
		step.Command = update.Command
	}
	if update.TargetPath != nil {
		step.TargetPath = update.TargetPath
	}

	return nil
}

// Summary counts the current step statuses. Attempted is left zero; the
// runner fills it in for the run it performed.
func (s *State) Summary() RunSummary {
	summary := RunSummary{Total: len(s.Steps)}
	for i := range s.Steps {
		switch s.Steps[i].Status {
		case StepStatusSucceeded:
			summary.Succeeded++
		case StepStatusFailed:
			summary.Failed++
		case StepStatusSkipped:
			summary.Skipped++
		default:
			// Pending and InProgress both count as still to do.
			summary.Pending++
		}
	}
	return summary
}
