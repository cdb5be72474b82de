package engine

import (
	"encoding/json"
	"fmt"
)

// StepStatus represents the execution status of a single plan step.
type StepStatus string

const (
	// StepStatusPending indicates the step has not been attempted yet.
	StepStatusPending StepStatus = "Pending"

	// StepStatusInProgress indicates the step was started but has no
	// recorded result. A persisted InProgress status after a crash means
	// "treat as not-yet-done".
	StepStatusInProgress StepStatus = "InProgress"

	// StepStatusSucceeded indicates the step completed successfully.
	StepStatusSucceeded StepStatus = "Succeeded"

	// StepStatusFailed indicates the step failed with a recorded error.
	StepStatusFailed StepStatus = "Failed"

	// StepStatusSkipped indicates the step was resolved externally.
	// The runner never produces this status itself.
	StepStatusSkipped StepStatus = "Skipped"
)

// IsTerminal returns true if the status represents a final state.
func (s StepStatus) IsTerminal() bool {
	return s == StepStatusSucceeded || s == StepStatusFailed || s == StepStatusSkipped
}

// Validate checks if the step status is valid.
func (s StepStatus) Validate() error {
	switch s {
	case StepStatusPending, StepStatusInProgress, StepStatusSucceeded,
		StepStatusFailed, StepStatusSkipped:
		return nil
	default:
		return fmt.Errorf("invalid step status: %s", s)
	}
}

// UnmarshalJSON implements JSON unmarshaling with validation.
func (s *StepStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = StepStatus(str)
	return s.Validate()
}

// ItemType distinguishes the two kinds of catalog items and plan steps.
type ItemType string

const (
	// ItemTypeApp is a package installed through the package manager.
	ItemTypeApp ItemType = "app"

	// ItemTypeScript is a configuration script run through the script host.
	ItemTypeScript ItemType = "script"
)

// Validate checks if the item type is valid.
func (t ItemType) Validate() error {
	switch t {
	case ItemTypeApp, ItemTypeScript:
		return nil
	default:
		return fmt.Errorf("invalid item type: %s", t)
	}
}

// RunMode selects how step executors perform their effect.
type RunMode string

const (
	// ModeDryRun logs the would-be effect of every step without side effects.
	ModeDryRun RunMode = "dry-run"

	// ModeMock simulates work with a short sleep and supports forced
	// failures through the run context's FailStepID.
	ModeMock RunMode = "mock"

	// ModeReal performs the full effect of every step.
	ModeReal RunMode = "real"
)

// Validate checks if the run mode is valid.
func (m RunMode) Validate() error {
	switch m {
	case ModeDryRun, ModeMock, ModeReal:
		return nil
	default:
		return fmt.Errorf("invalid run mode: %s", m)
	}
}

// ResumeOption filters which step statuses are eligible for (re)execution.
type ResumeOption string

const (
	// ResumeAll runs every step that is not already resolved.
	ResumeAll ResumeOption = "all"

	// ResumePending runs only steps never completed (Pending or InProgress).
	ResumePending ResumeOption = "pending"

	// RerunFailed runs only steps that previously failed.
	RerunFailed ResumeOption = "failed"
)

// Validate checks if the resume option is valid.
func (r ResumeOption) Validate() error {
	switch r {
	case ResumeAll, ResumePending, RerunFailed:
		return nil
	default:
		return fmt.Errorf("invalid resume option: %s", r)
	}
}

// Eligible reports whether a step with the given status should be executed
// under this resume option.
func (r ResumeOption) Eligible(s StepStatus) bool {
	switch r {
	case ResumePending:
		return s == StepStatusPending || s == StepStatusInProgress
	case RerunFailed:
		return s == StepStatusFailed
	default:
		return s == StepStatusPending || s == StepStatusInProgress || s == StepStatusFailed
	}
}

// Note tags recorded on state steps for audit purposes.
const (
	// NoteDryRun marks a step that was attempted in dry-run mode.
	NoteDryRun = "dryRun"

	// NoteMock marks a step that was simulated in mock mode.
	NoteMock = "mock"

	// NoteSimulatedFailure marks a forced failure injected via FailStepID.
	NoteSimulatedFailure = "simulatedFailure"

	// NoteAlreadyInstalled marks an install step resolved by the package
	// manager reporting the package as already present.
	NoteAlreadyInstalled = "alreadyInstalled"
)
