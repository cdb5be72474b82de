package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/winforge/winforge/pkg/telemetry"
	"github.com/winforge/winforge/pkg/winget"
)

// InstallExecutor executes app steps by driving the package manager.
// The invocation string is built deterministically from the item's package
// configuration and the step's override snapshot; classification of the
// result treats a recognized "already installed" signal as success so that
// re-running a partially completed plan stays idempotent.
type InstallExecutor struct {
	runner CommandRunner
	logger *telemetry.Logger
}

// NewInstallExecutor creates an install executor backed by the given
// command runner.
func NewInstallExecutor(runner CommandRunner, logger *telemetry.Logger) *InstallExecutor {
	return &InstallExecutor{
		runner: runner,
		logger: logger.NewComponentLogger("install"),
	}
}

// Execute performs (or simulates) one app step according to the run mode.
// Execution failures are reported through the Outcome; the returned error
// is reserved for integrity conditions, which must propagate.
func (e *InstallExecutor) Execute(ctx context.Context, step Step, item Item, rc *RunContext) (Outcome, error) {
	if item.Winget == nil {
		return Outcome{}, NewIntegrityError("app item has no winget configuration", nil).
			WithStep(step.ID).
			WithCode(ErrCodeUnknownStepType)
	}

	args := winget.InstallArgs(item.Winget.PackageID, item.Winget.Source, item.Winget.Scope, step.Parameters.Override)
	command := winget.CommandLine(args)

	switch rc.Mode {
	case ModeDryRun:
		e.logger.WithStepID(step.ID).Infof("dry-run: would execute %s", command)
		return Outcome{
			Success: true,
			Command: command,
			Notes:   []string{NoteDryRun},
		}, nil

	case ModeMock:
		if rc.FailStepID == step.ID {
			return simulatedFailure(step, command), nil
		}
		rc.sleep(mockDelay())
		return Outcome{
			Success: true,
			Command: command,
			Notes:   []string{NoteMock},
		}, nil

	case ModeReal:
		return e.install(ctx, step, command, args, rc), nil

	default:
		return Outcome{}, NewIntegrityError(fmt.Sprintf("unknown run mode %q", rc.Mode), nil).
			WithStep(step.ID).
			WithCode(ErrCodeUnknownRunMode)
	}
}

// install spawns the package manager, persists its combined output to the
// per-step log file, and classifies the exit.
func (e *InstallExecutor) install(ctx context.Context, step Step, command string, args []string, rc *RunContext) Outcome {
	log := e.logger.WithStepID(step.ID)
	log.Infof("executing %s", command)

	output, exitCode, err := e.runner.Run(ctx, winget.Binary, args...)

	var targets []string
	if logPath, logErr := writeStepLog(rc.LogsDir, step.ID, output); logErr == nil && logPath != "" {
		targets = append(targets, logPath)
	} else if logErr != nil {
		log.WithError(logErr).Warn("failed to write step log")
	}

	if err != nil {
		// The process could not be spawned at all. Captured at the
		// executor boundary and downgraded to a step failure.
		return Outcome{
			Command:     command,
			Error:       &StepError{Message: err.Error()},
			TargetPaths: targets,
		}
	}

	if exitCode == 0 {
		return Outcome{
			Success:     true,
			Command:     command,
			TargetPaths: targets,
		}
	}

	if winget.AlreadyInstalled(exitCode, output) {
		log.Infof("package already installed (exit code %d)", exitCode)
		return Outcome{
			Success:     true,
			Command:     command,
			Notes:       []string{NoteAlreadyInstalled},
			TargetPaths: targets,
		}
	}

	code := exitCode
	return Outcome{
		Command: command,
		Error: &StepError{
			Message:  fmt.Sprintf("installer exited with code %d", exitCode),
			ExitCode: &code,
		},
		TargetPaths: targets,
	}
}

// simulatedFailure builds the forced-failure outcome for mock mode.
func simulatedFailure(step Step, command string) Outcome {
	return Outcome{
		Command: command,
		Error:   &StepError{Message: fmt.Sprintf("simulated failure of step %s (mock mode)", step.ID)},
		Notes:   []string{NoteMock, NoteSimulatedFailure},
	}
}

// writeStepLog persists captured step output under the logs directory.
// Empty output writes nothing.
func writeStepLog(dir, stepID, output string) (string, error) {
	if output == "" || dir == "" {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, stepID+".log")
	if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// sleep delays for d, honoring an injected replacement.
func (rc *RunContext) sleep(d time.Duration) {
	if rc.Sleep != nil {
		rc.Sleep(d)
		return
	}
	time.Sleep(d)
}

// mockDelay returns a bounded random duration emulating real work, so
// timing-sensitive resume and failure tests see realistic interleavings.
func mockDelay() time.Duration {
	return 50*time.Millisecond + time.Duration(rand.IntN(200))*time.Millisecond
}
