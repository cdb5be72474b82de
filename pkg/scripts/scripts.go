// Package scripts resolves and invokes provisioning scripts. Scripts are
// PowerShell files that accept a parameter mapping plus a -DryRun switch,
// signal failure exclusively by throwing, and perform zero observable side
// effects in dry-run mode.
package scripts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Extension is the only script file extension the invoker accepts.
const Extension = ".ps1"

// shell is the script host executable.
const shell = "powershell.exe"

// baseArgs are the fixed script host arguments. -NonInteractive keeps a
// misbehaving script from blocking the run on a prompt.
var baseArgs = []string{"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass"}

// ErrNotFound reports a script path that does not resolve to an existing
// file with the expected extension.
type ErrNotFound struct {
	// Path is the path that failed to resolve.
	Path string

	// Reason describes why resolution failed.
	Reason string
}

// Error implements the error interface.
func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("script %s: %s", e.Path, e.Reason)
}

// Resolve resolves a relative script path against the script root and
// verifies the file exists with the expected extension. Resolution fails
// immediately rather than at invocation time so a bad catalog entry is
// reported as a missing resource, not a script-host error.
func Resolve(root, relative string) (string, error) {
	if filepath.Ext(relative) != Extension {
		return "", &ErrNotFound{Path: relative, Reason: "not a " + Extension + " script"}
	}

	full := filepath.Join(root, relative)
	info, err := os.Stat(full)
	if err != nil {
		return "", &ErrNotFound{Path: full, Reason: "file does not exist"}
	}
	if info.IsDir() {
		return "", &ErrNotFound{Path: full, Reason: "path is a directory"}
	}
	return full, nil
}

// MergeParameters flattens a catalog parameter mapping into the key/value
// form passed to scripts. A nil source yields an empty mapping.
func MergeParameters(sources ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, source := range sources {
		for k, v := range source {
			merged[k] = v
		}
	}
	return merged
}

// CommandLine renders the script invocation for audit records. Parameters
// are ordered by name so the rendered string is deterministic.
func CommandLine(path string, params map[string]string, dryRun bool) string {
	var b strings.Builder
	b.WriteString(shell)
	for _, arg := range baseArgs {
		b.WriteString(" ")
		b.WriteString(arg)
	}
	b.WriteString(" -File ")
	b.WriteString(path)
	for _, name := range sortedKeys(params) {
		fmt.Fprintf(&b, " -%s %q", name, params[name])
	}
	if dryRun {
		b.WriteString(" -DryRun")
	}
	return b.String()
}

// PowerShell invokes scripts through the script host. It implements the
// engine's ScriptInvoker contract: the returned error carries the thrown
// script error's message, and exit-code-only failures surface the captured
// output as the message.
type PowerShell struct{}

// Invoke runs the script with the given parameters. $ErrorActionPreference
// is forced to Stop inside the host so thrown errors terminate the process
// with a non-zero exit code the invoker can observe.
func (PowerShell) Invoke(ctx context.Context, path string, params map[string]string, dryRun bool) (string, error) {
	args := append([]string{}, baseArgs...)
	args = append(args, "-File", path)
	for _, name := range sortedKeys(params) {
		args = append(args, "-"+name, params[name])
	}
	if dryRun {
		args = append(args, "-DryRun")
	}

	cmd := exec.CommandContext(ctx, shell, args...)

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	err := cmd.Run()
	output := combined.String()

	if err != nil {
		message := lastNonEmptyLine(output)
		if message == "" {
			message = err.Error()
		}
		return output, fmt.Errorf("script failed: %s", message)
	}
	return output, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// lastNonEmptyLine extracts the trailing message from captured output,
// which is where the script host prints a thrown error.
func lastNonEmptyLine(output string) string {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
