// Package winget wraps the Windows package manager command line: building
// deterministic install invocations, running them with combined output
// capture, and classifying the "already installed" result that a re-run of
// a partially completed plan produces.
package winget

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Binary is the package manager executable name.
const Binary = "winget"

// Already-installed exit codes returned by the package manager. This list
// is deliberately not exhaustive across package-manager versions; textual
// matching is the fallback when an unlisted code appears.
var alreadyInstalledExitCodes = map[int]bool{
	// APPINSTALLER_CLI_ERROR_PACKAGE_ALREADY_INSTALLED (0x8A150061)
	-1978335135: true,
	// APPINSTALLER_CLI_ERROR_UPDATE_NOT_APPLICABLE (0x8A15002B)
	-1978335189: true,
}

// alreadyInstalledMarkers are lowercase substrings scanned in captured
// output as a best-effort fallback to exit-code classification.
var alreadyInstalledMarkers = []string{
	"already installed",
	"no newer package versions are available",
}

// InstallArgs builds the argument list for installing a package.
// The construction is deterministic: optional flags are omitted when their
// value is absent, and an override flag is never emitted for a nil override.
func InstallArgs(packageID, source, scope string, override *string) []string {
	args := []string{"install", "--id", packageID, "--exact", "--silent",
		"--accept-package-agreements", "--accept-source-agreements"}
	if source != "" {
		args = append(args, "--source", source)
	}
	if scope != "" {
		args = append(args, "--scope", scope)
	}
	if override != nil {
		args = append(args, "--override", *override)
	}
	return args
}

// CommandLine renders the full invocation string for audit records.
func CommandLine(args []string) string {
	return Binary + " " + strings.Join(args, " ")
}

// AlreadyInstalled reports whether a non-zero package-manager result
// actually means the package is present. Exit-code matching is the primary
// mechanism; the output scan is a locale-dependent fallback.
func AlreadyInstalled(exitCode int, output string) bool {
	if alreadyInstalledExitCodes[exitCode] {
		return true
	}
	lowered := strings.ToLower(output)
	for _, marker := range alreadyInstalledMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// Exec runs commands through os/exec with stdout and stderr drained into
// one combined buffer while the call blocks until the process exits.
type Exec struct{}

// Run executes the command and returns its combined output and exit code.
// A non-nil error means the process could not be started at all.
func (Exec) Run(ctx context.Context, name string, args ...string) (string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	err := cmd.Run()
	output := combined.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return output, exitErr.ExitCode(), nil
		}
		return output, -1, fmt.Errorf("failed to execute %s: %w", name, err)
	}
	return output, 0, nil
}
