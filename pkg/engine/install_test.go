package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func installStep(id string, override *string) Step {
	return Step{
		ID:         id,
		Type:       ItemTypeApp,
		Parameters: StepParameters{Override: override},
	}
}

func TestInstallExecutor_DryRun(t *testing.T) {
	cmd := &spyCommandRunner{}
	executor := NewInstallExecutor(cmd, testLogger(t))
	item := appItem("apps.alpha", 10)
	rc := &RunContext{Mode: ModeDryRun}

	outcome, err := executor.Execute(context.Background(), installStep("apps.alpha", nil), item, rc)
	if err != nil {
		t.Fatal(err)
	}

	if !outcome.Success {
		t.Error("Expected dry-run success")
	}
	if cmd.calls != 0 {
		t.Errorf("Expected no command execution in dry-run, got %d", cmd.calls)
	}
	if !strings.Contains(outcome.Command, "winget install --id Vendor.apps.alpha") {
		t.Errorf("Expected command audit string, got %q", outcome.Command)
	}
	if !reflect.DeepEqual(outcome.Notes, []string{NoteDryRun}) {
		t.Errorf("Expected dry-run note, got %v", outcome.Notes)
	}
}

func TestInstallExecutor_MockSuccess(t *testing.T) {
	cmd := &spyCommandRunner{}
	executor := NewInstallExecutor(cmd, testLogger(t))
	item := appItem("apps.alpha", 10)
	slept := false
	rc := &RunContext{Mode: ModeMock, Sleep: func(time.Duration) { slept = true }}

	outcome, err := executor.Execute(context.Background(), installStep("apps.alpha", nil), item, rc)
	if err != nil {
		t.Fatal(err)
	}

	if !outcome.Success {
		t.Error("Expected mock success")
	}
	if cmd.calls != 0 {
		t.Errorf("Expected no command execution in mock mode, got %d", cmd.calls)
	}
	if !slept {
		t.Error("Expected mock mode to simulate work")
	}
	if !reflect.DeepEqual(outcome.Notes, []string{NoteMock}) {
		t.Errorf("Expected mock note, got %v", outcome.Notes)
	}
}

func TestInstallExecutor_MockSimulatedFailure(t *testing.T) {
	executor := NewInstallExecutor(&spyCommandRunner{}, testLogger(t))
	item := appItem("apps.alpha", 10)
	rc := &RunContext{Mode: ModeMock, FailStepID: "apps.alpha", Sleep: func(time.Duration) {}}

	outcome, err := executor.Execute(context.Background(), installStep("apps.alpha", nil), item, rc)
	if err != nil {
		t.Fatal(err)
	}

	if outcome.Success {
		t.Error("Expected simulated failure")
	}
	if outcome.Error == nil || !strings.Contains(outcome.Error.Message, "simulated") {
		t.Errorf("Expected simulated failure message, got %+v", outcome.Error)
	}
	if !reflect.DeepEqual(outcome.Notes, []string{NoteMock, NoteSimulatedFailure}) {
		t.Errorf("Expected mock and simulated-failure notes, got %v", outcome.Notes)
	}
}

func TestInstallExecutor_RealSuccess(t *testing.T) {
	logsDir := filepath.Join(t.TempDir(), "logs")
	cmd := &spyCommandRunner{output: "installed ok\n", exitCode: 0}
	executor := NewInstallExecutor(cmd, testLogger(t))
	item := appItem("apps.alpha", 10)
	rc := &RunContext{Mode: ModeReal, LogsDir: logsDir}

	outcome, err := executor.Execute(context.Background(), installStep("apps.alpha", nil), item, rc)
	if err != nil {
		t.Fatal(err)
	}

	if !outcome.Success {
		t.Errorf("Expected success, got %+v", outcome)
	}
	if cmd.calls != 1 {
		t.Errorf("Expected one command execution, got %d", cmd.calls)
	}

	logPath := filepath.Join(logsDir, "apps.alpha.log")
	data, readErr := os.ReadFile(logPath)
	if readErr != nil {
		t.Fatalf("Expected step log written: %v", readErr)
	}
	if string(data) != "installed ok\n" {
		t.Errorf("Expected captured output in log, got %q", string(data))
	}
	if len(outcome.TargetPaths) != 1 || outcome.TargetPaths[0] != logPath {
		t.Errorf("Expected log path in target paths, got %v", outcome.TargetPaths)
	}
}

func TestInstallExecutor_RealAlreadyInstalled(t *testing.T) {
	cmd := &spyCommandRunner{exitCode: -1978335135}
	executor := NewInstallExecutor(cmd, testLogger(t))
	item := appItem("apps.alpha", 10)

	outcome, err := executor.Execute(context.Background(), installStep("apps.alpha", nil), item,
		&RunContext{Mode: ModeReal})
	if err != nil {
		t.Fatal(err)
	}

	if !outcome.Success {
		t.Error("Expected already-installed to count as success")
	}
	if !reflect.DeepEqual(outcome.Notes, []string{NoteAlreadyInstalled}) {
		t.Errorf("Expected already-installed note, got %v", outcome.Notes)
	}
}

func TestInstallExecutor_RealFailure(t *testing.T) {
	cmd := &spyCommandRunner{output: "access denied", exitCode: 5}
	executor := NewInstallExecutor(cmd, testLogger(t))
	item := appItem("apps.alpha", 10)

	outcome, err := executor.Execute(context.Background(), installStep("apps.alpha", nil), item,
		&RunContext{Mode: ModeReal})
	if err != nil {
		t.Fatal(err)
	}

	if outcome.Success {
		t.Error("Expected failure for non-zero exit")
	}
	if outcome.Error == nil || outcome.Error.ExitCode == nil || *outcome.Error.ExitCode != 5 {
		t.Errorf("Expected exit code 5 recorded, got %+v", outcome.Error)
	}
}

func TestInstallExecutor_RealSpawnError(t *testing.T) {
	cmd := &spyCommandRunner{err: errors.New("executable file not found")}
	executor := NewInstallExecutor(cmd, testLogger(t))
	item := appItem("apps.alpha", 10)

	outcome, err := executor.Execute(context.Background(), installStep("apps.alpha", nil), item,
		&RunContext{Mode: ModeReal})
	if err != nil {
		t.Fatal(err)
	}

	if outcome.Success {
		t.Error("Expected failure when the process cannot be spawned")
	}
	if outcome.Error == nil || !strings.Contains(outcome.Error.Message, "not found") {
		t.Errorf("Expected spawn error recorded, got %+v", outcome.Error)
	}
}

func TestInstallExecutor_OverrideSnapshotUsed(t *testing.T) {
	cmd := &spyCommandRunner{exitCode: 0}
	executor := NewInstallExecutor(cmd, testLogger(t))
	catalogOverride := "/CATALOG"
	stepOverride := "/SNAPSHOT"
	item := appItem("apps.alpha", 10)
	item.Winget.Override = &catalogOverride

	_, err := executor.Execute(context.Background(), installStep("apps.alpha", &stepOverride), item,
		&RunContext{Mode: ModeReal})
	if err != nil {
		t.Fatal(err)
	}

	joined := strings.Join(cmd.lastArgs, " ")
	if !strings.Contains(joined, "--override /SNAPSHOT") {
		t.Errorf("Expected step snapshot override, got %q", joined)
	}
	if strings.Contains(joined, "/CATALOG") {
		t.Errorf("Expected catalog override ignored, got %q", joined)
	}
}

func TestInstallExecutor_MissingWingetConfig(t *testing.T) {
	executor := NewInstallExecutor(&spyCommandRunner{}, testLogger(t))
	item := Item{ID: "apps.alpha", Type: ItemTypeApp}

	_, err := executor.Execute(context.Background(), installStep("apps.alpha", nil), item,
		&RunContext{Mode: ModeReal})
	if err == nil {
		t.Fatal("Expected integrity error for missing winget config")
	}
	if !IsIntegrity(err) {
		t.Errorf("Expected integrity error, got %v", err)
	}
}

func TestInstallExecutor_UnknownMode(t *testing.T) {
	executor := NewInstallExecutor(&spyCommandRunner{}, testLogger(t))
	item := appItem("apps.alpha", 10)

	_, err := executor.Execute(context.Background(), installStep("apps.alpha", nil), item,
		&RunContext{Mode: RunMode("turbo")})
	if err == nil {
		t.Fatal("Expected integrity error for unknown mode")
	}
	var engineErr *EngineError
	if !errors.As(err, &engineErr) || engineErr.Code != ErrCodeUnknownRunMode {
		t.Errorf("Expected %s error, got %v", ErrCodeUnknownRunMode, err)
	}
}
