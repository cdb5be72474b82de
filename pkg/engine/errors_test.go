package engine

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestEngineErrorMessage(t *testing.T) {
	err := NewExecutionError("installer failed", errors.New("exit status 1603")).
		WithStep("apps.git").
		WithCode(ErrCodeStepNotFound)

	msg := err.Error()
	if !strings.Contains(msg, "execution") {
		t.Errorf("Expected class in message, got %q", msg)
	}
	if !strings.Contains(msg, "apps.git") {
		t.Errorf("Expected step in message, got %q", msg)
	}
	if !strings.Contains(msg, "exit status 1603") {
		t.Errorf("Expected cause in message, got %q", msg)
	}
}

func TestEngineErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewIntegrityError("failed to persist state", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected cause reachable through errors.Is")
	}

	wrapped := fmt.Errorf("apply: %w", err)
	var engineErr *EngineError
	if !errors.As(wrapped, &engineErr) {
		t.Fatal("Expected EngineError recoverable through errors.As")
	}
	if engineErr.Class != ErrorClassIntegrity {
		t.Errorf("Expected integrity class, got %s", engineErr.Class)
	}
}

func TestEngineErrorClassification(t *testing.T) {
	integrity := NewIntegrityError("bad pairing", nil)
	execution := NewExecutionError("step failed", nil)
	resource := NewResourceError("script missing", nil)

	if !IsIntegrity(integrity) || IsIntegrity(execution) || IsIntegrity(resource) {
		t.Error("Expected IsIntegrity to match only integrity errors")
	}
	if !IsExecution(execution) || IsExecution(integrity) {
		t.Error("Expected IsExecution to match only execution errors")
	}
	if !IsResource(resource) || IsResource(execution) {
		t.Error("Expected IsResource to match only resource errors")
	}
	if IsIntegrity(errors.New("plain")) {
		t.Error("Expected plain errors unclassified")
	}
}

func TestEngineErrorIs(t *testing.T) {
	a := NewIntegrityError("one", nil).WithCode(ErrCodeStateMismatch)
	b := NewIntegrityError("two", nil).WithCode(ErrCodeStateMismatch)
	c := NewIntegrityError("three", nil).WithCode(ErrCodeVersionMismatch)

	if !errors.Is(a, b) {
		t.Error("Expected same class and code to match")
	}
	if errors.Is(a, c) {
		t.Error("Expected different codes not to match")
	}
}
