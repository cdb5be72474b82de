// Package engine implements the plan/state/execution core of winforge:
// building deterministic plans from catalog selections, tracking per-step
// progress in a resumable state ledger, and running steps in order with
// stop-on-failure semantics.
package engine

import (
	"errors"
	"fmt"
)

// ErrorClass classifies an engine error for propagation decisions.
type ErrorClass string

const (
	// ErrorClassIntegrity indicates a corrupted plan/state pairing or a
	// programmer error (unknown step type, update of a missing step).
	// Integrity errors propagate to the caller and are never swallowed.
	ErrorClassIntegrity ErrorClass = "integrity"

	// ErrorClassExecution indicates an expected step failure (installer
	// non-zero exit, script error, simulated test failure). These are
	// recorded in the state ledger and resolved by resuming the run.
	ErrorClassExecution ErrorClass = "execution"

	// ErrorClassResource indicates a missing external resource such as a
	// script file or the catalog item backing a planned step.
	ErrorClassResource ErrorClass = "resource"
)

// EngineError is a classified error with step context.
// nolint:revive // EngineError is intentionally named to distinguish from standard errors
type EngineError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// StepID is the plan step that caused the error, if applicable.
	StepID string `json:"step_id,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("[%s] %s (step=%s): %s", e.Class, e.Message, e.StepID, e.unwrapMessage())
	}
	return fmt.Sprintf("[%s] %s: %s", e.Class, e.Message, e.unwrapMessage())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *EngineError) Unwrap() error {
	return e.Err
}

func (e *EngineError) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewIntegrityError creates a new integrity error.
func NewIntegrityError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassIntegrity,
		Message: message,
		Err:     err,
	}
}

// NewExecutionError creates a new execution error.
func NewExecutionError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassExecution,
		Message: message,
		Err:     err,
	}
}

// NewResourceError creates a new resource error.
func NewResourceError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassResource,
		Message: message,
		Err:     err,
	}
}

// WithStep adds step context to an error.
func (e *EngineError) WithStep(stepID string) *EngineError {
	e.StepID = stepID
	return e
}

// WithCode adds an error code to an error.
func (e *EngineError) WithCode(code string) *EngineError {
	e.Code = code
	return e
}

// IsIntegrity returns true if the error is classified as an integrity error.
func IsIntegrity(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassIntegrity
	}
	return false
}

// IsExecution returns true if the error is classified as an execution error.
func IsExecution(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassExecution
	}
	return false
}

// IsResource returns true if the error is classified as a resource error.
func IsResource(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassResource
	}
	return false
}

// Common error codes.
const (
	ErrCodeStepNotFound      = "STEP_NOT_FOUND"
	ErrCodeItemNotFound      = "ITEM_NOT_FOUND"
	ErrCodeScriptNotFound    = "SCRIPT_NOT_FOUND"
	ErrCodeUnknownStepType   = "UNKNOWN_STEP_TYPE"
	ErrCodeUnknownRunMode    = "UNKNOWN_RUN_MODE"
	ErrCodeStateMismatch     = "STATE_MISMATCH"
	ErrCodeVersionMismatch   = "VERSION_MISMATCH"
	ErrCodePersistenceFailed = "PERSISTENCE_FAILED"
)
