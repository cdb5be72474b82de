package engine

import (
	"context"
	"fmt"

	"github.com/winforge/winforge/pkg/scripts"
	"github.com/winforge/winforge/pkg/telemetry"
)

// ScriptExecutor executes script steps through the script host. It
// resolves the script path against the script root, passes the merged
// parameter snapshot, and relays the catalog's explorer-restart flag
// upward through the Outcome; it never restarts anything itself.
type ScriptExecutor struct {
	invoker ScriptInvoker
	logger  *telemetry.Logger
}

// NewScriptExecutor creates a script executor backed by the given invoker.
func NewScriptExecutor(invoker ScriptInvoker, logger *telemetry.Logger) *ScriptExecutor {
	return &ScriptExecutor{
		invoker: invoker,
		logger:  logger.NewComponentLogger("script"),
	}
}

// Execute performs (or simulates) one script step according to the run
// mode. A missing or wrongly named script file is a step failure; the
// returned error is reserved for integrity conditions.
func (e *ScriptExecutor) Execute(ctx context.Context, step Step, item Item, rc *RunContext) (Outcome, error) {
	if item.Script == nil {
		return Outcome{}, NewIntegrityError("script item has no script configuration", nil).
			WithStep(step.ID).
			WithCode(ErrCodeUnknownStepType)
	}

	path, err := scripts.Resolve(rc.ScriptRoot, item.Script.Path)
	if err != nil {
		return Outcome{
			Error: &StepError{Message: err.Error()},
		}, nil
	}

	params := step.Parameters.Script
	if params == nil {
		params = map[string]string{}
	}

	switch rc.Mode {
	case ModeDryRun:
		return e.invoke(ctx, step, item, path, params, rc, true), nil

	case ModeMock:
		command := scripts.CommandLine(path, params, false)
		if rc.FailStepID == step.ID {
			return simulatedFailure(step, command), nil
		}
		rc.sleep(mockDelay())
		return Outcome{
			Success:          true,
			Command:          command,
			Notes:            []string{NoteMock},
			ExplorerRequired: item.Script.RestartExplorer,
		}, nil

	case ModeReal:
		return e.invoke(ctx, step, item, path, params, rc, false), nil

	default:
		return Outcome{}, NewIntegrityError(fmt.Sprintf("unknown run mode %q", rc.Mode), nil).
			WithStep(step.ID).
			WithCode(ErrCodeUnknownRunMode)
	}
}

// invoke runs the script through the invoker, converting a raised script
// error into a failure outcome. In dry-run mode the script contract
// guarantees no observable side effects.
func (e *ScriptExecutor) invoke(ctx context.Context, step Step, item Item, path string, params map[string]string, rc *RunContext, dryRun bool) Outcome {
	command := scripts.CommandLine(path, params, dryRun)
	log := e.logger.WithStepID(step.ID)
	log.Infof("executing %s", command)

	output, err := e.invoker.Invoke(ctx, path, params, dryRun)

	targets := []string{path}
	if logPath, logErr := writeStepLog(rc.LogsDir, step.ID, output); logErr == nil && logPath != "" {
		targets = append(targets, logPath)
	} else if logErr != nil {
		log.WithError(logErr).Warn("failed to write step log")
	}

	var notes []string
	if dryRun {
		notes = []string{NoteDryRun}
	}

	if err != nil {
		return Outcome{
			Command:     command,
			Error:       &StepError{Message: err.Error()},
			Notes:       notes,
			TargetPaths: targets,
		}
	}

	return Outcome{
		Success:          true,
		Command:          command,
		Notes:            notes,
		TargetPaths:      targets,
		ExplorerRequired: item.Script.RestartExplorer,
	}
}
