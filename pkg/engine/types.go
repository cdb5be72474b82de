package engine

import (
	"context"
	"time"
)

// Schema version tags written into persisted artifacts.
const (
	// PlanVersion is the schema version of persisted plan files.
	PlanVersion = "1.0"

	// StateVersion is the schema version of persisted state files.
	StateVersion = "1.0"
)

// Item is a selectable catalog entry, modeled as a tagged union over the
// app and script variants: exactly one of Winget or Script is set,
// matching Type. Items are produced by the catalog loader with priorities
// already resolved and are never mutated by the engine.
type Item struct {
	// ID is the globally unique item identifier in "category.name" form.
	ID string `json:"id"`

	// Type tags which variant of the union is populated.
	Type ItemType `json:"type"`

	// Category is the category component of the ID.
	Category string `json:"category"`

	// DisplayName is the human-readable name shown in selection lists.
	DisplayName string `json:"displayName"`

	// EffectivePriority is the resolved ordering priority (lower runs first).
	EffectivePriority int `json:"effectivePriority"`

	// Winget holds the package configuration when Type is app.
	Winget *WingetConfig `json:"winget,omitempty"`

	// Script holds the script configuration when Type is script.
	Script *ScriptConfig `json:"script,omitempty"`
}

// WingetConfig is the package-manager configuration of an app item.
type WingetConfig struct {
	// PackageID is the package identifier passed to the package manager.
	PackageID string `json:"packageId"`

	// Source is the package source (e.g. "winget", "msstore").
	Source string `json:"source,omitempty"`

	// Scope is the install scope (e.g. "user", "machine").
	Scope string `json:"scope,omitempty"`

	// Override is an optional raw installer argument string.
	// Nil means no override flag is emitted at all.
	Override *string `json:"override,omitempty"`
}

// ScriptConfig is the script-host configuration of a script item.
type ScriptConfig struct {
	// Path is the script path relative to the script root.
	Path string `json:"path"`

	// Parameters maps parameter names to values passed to the script.
	Parameters map[string]string `json:"parameters,omitempty"`

	// RestartExplorer signals that a successful run requires the
	// surrounding shell to be restarted afterwards.
	RestartExplorer bool `json:"restartExplorer,omitempty"`
}

// Step is one unit of work in a plan. It snapshots the type-relevant item
// parameters at plan-build time, so a persisted plan stays stable even if
// the catalog changes afterwards. Ordering is positional, not stored.
type Step struct {
	// ID equals the catalog item ID the step was derived from.
	ID string `json:"id"`

	// Type is the step kind, dispatched on by the runner.
	Type ItemType `json:"type"`

	// Parameters is the snapshot captured at plan-build time.
	Parameters StepParameters `json:"parameters"`
}

// StepParameters is the per-step parameter snapshot. Only the fields
// relevant to the step's type are populated.
type StepParameters struct {
	// Override is the snapshotted installer override for app steps.
	Override *string `json:"override,omitempty"`

	// Script is the merged parameter mapping for script steps.
	Script map[string]string `json:"script,omitempty"`
}

// Environment is an informational host snapshot stamped into plans.
type Environment struct {
	// ComputerName is the host name at plan-build time.
	ComputerName string `json:"computerName"`

	// OSVersion is the operating system version string.
	OSVersion string `json:"osVersion"`
}

// Plan is the ordered, immutable sequence of steps for one run.
// Step order is fixed at creation and never recomputed afterwards.
type Plan struct {
	// PlanVersion is the plan file schema version.
	PlanVersion string `json:"planVersion"`

	// GeneratedAt is when the plan was built.
	GeneratedAt time.Time `json:"generatedAt"`

	// Environment is the host snapshot at plan-build time.
	Environment Environment `json:"environment"`

	// Steps is the ordered step sequence.
	Steps []Step `json:"steps"`
}

// StepError is the structured error recorded on a failed state step.
type StepError struct {
	// Message is the failure description.
	Message string `json:"message"`

	// ExitCode is the process exit code, when the failure came from one.
	ExitCode *int `json:"exitCode,omitempty"`
}

// StateStep is the mutable progress record for one plan step.
type StateStep struct {
	// ID is the plan step ID this record tracks (1:1, same order).
	ID string `json:"id"`

	// Status is the current execution status.
	Status StepStatus `json:"status"`

	// StartedAt is when execution of the step last began.
	StartedAt *time.Time `json:"startedAt"`

	// EndedAt is when execution of the step last finished.
	EndedAt *time.Time `json:"endedAt"`

	// Error is the recorded failure, nil while the step has none.
	Error *StepError `json:"error"`

	// Notes is an ordered list of audit tags (dryRun, mock, ...).
	Notes []string `json:"notes"`

	// Command is the exact invocation string, recorded for audit.
	Command *string `json:"command"`

	// TargetPath lists the resource(s) the step touched, for audit only.
	TargetPath *string `json:"targetPath"`
}

// State is the persisted per-step progress ledger for one plan.
// Steps are index-aligned with the plan's steps; the alignment invariant
// is established by InitState and verified when loading from disk.
type State struct {
	// StateVersion is the state file schema version.
	StateVersion string `json:"stateVersion"`

	// PlanHash fingerprints the plan this state belongs to.
	PlanHash string `json:"planHash"`

	// StartedAt is when the state ledger was created.
	StartedAt time.Time `json:"startedAt"`

	// Steps is the ordered status ledger, one entry per plan step.
	Steps []StateStep `json:"steps"`
}

// Outcome is the structured result of executing one step.
type Outcome struct {
	// Success indicates whether the step achieved its effect.
	Success bool

	// Command is the invocation string used, empty when none was built.
	Command string

	// Error describes the failure when Success is false.
	Error *StepError

	// Notes are audit tags to append to the state step.
	Notes []string

	// TargetPaths lists filesystem resources the step touched.
	TargetPaths []string

	// ExplorerRequired signals that a shell restart is owed after the run.
	// The executor never performs the restart itself.
	ExplorerRequired bool
}

// RunSummary reports the outcome counts of one runner invocation.
type RunSummary struct {
	// Total is the number of steps in the plan.
	Total int `json:"total"`

	// Attempted is the number of steps the runner executed this run.
	Attempted int `json:"attempted"`

	// Succeeded is the number of steps currently succeeded.
	Succeeded int `json:"succeeded"`

	// Failed is the number of steps currently failed.
	Failed int `json:"failed"`

	// Skipped is the number of steps resolved externally.
	Skipped int `json:"skipped"`

	// Pending is the number of steps still awaiting execution, which
	// guides the user toward a future resume.
	Pending int `json:"pending"`
}

// RunContext carries the execution mode and per-run collaborators into the
// runner and step executors. One RunContext serves exactly one run.
type RunContext struct {
	// RunID identifies this run in logs and metrics.
	RunID string

	// Mode selects dry-run, mock, or real execution.
	Mode RunMode

	// FailStepID forces a synthetic failure of the matching step in mock
	// mode. Test-only fault injection; empty in production runs.
	FailStepID string

	// LogsDir is where per-step output logs are written.
	LogsDir string

	// ScriptRoot is the directory script paths resolve against.
	ScriptRoot string

	// Sleep replaces the mock-mode delay; nil means a real randomized
	// sleep. Tests inject a no-op to keep runs fast.
	Sleep func(time.Duration)
}

// CommandRunner executes an external command and reports its combined
// output and exit code. A non-nil error means the command could not be
// run at all, not that it exited non-zero.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (output string, exitCode int, err error)
}

// ScriptInvoker invokes a provisioning script. Scripts signal failure
// through the returned error; in dry-run mode the script contract
// guarantees no observable side effects.
type ScriptInvoker interface {
	Invoke(ctx context.Context, path string, params map[string]string, dryRun bool) (output string, err error)
}

// StatePersister persists the state ledger. The runner calls it after
// every single step transition, never batched.
type StatePersister interface {
	SaveState(ctx context.Context, state *State) error
}

// RestartPrompter is told, at most once per run, that a successful step
// requested an explorer restart.
type RestartPrompter interface {
	PromptExplorerRestart(ctx context.Context)
}
