// Package stores persists plans and state ledgers as JSON files in an
// artifacts directory. Writes are atomic (temp file then rename) so a
// crash mid-write never leaves a truncated artifact visible to the next
// run. The directory is single-writer: one winforge invocation at a time.
package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/winforge/winforge/pkg/engine"
)

// Artifact file names inside the artifacts directory.
const (
	// PlanFileName is the persisted plan file.
	PlanFileName = "plan.json"

	// StateFileName is the persisted state ledger.
	StateFileName = "state.json"

	// LogsDirName holds per-step output logs.
	LogsDirName = "logs"

	// archiveDirName holds archived artifacts from prior runs.
	archiveDirName = "archive"
)

// ErrNotFound reports a missing artifact file.
var ErrNotFound = errors.New("artifact not found")

// FileStore reads and writes run artifacts under one directory.
// It implements engine.StatePersister.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir. The directory is
// created on first write, not here.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the artifacts directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// PlanPath returns the plan file path.
func (s *FileStore) PlanPath() string {
	return filepath.Join(s.dir, PlanFileName)
}

// StatePath returns the state file path.
func (s *FileStore) StatePath() string {
	return filepath.Join(s.dir, StateFileName)
}

// LogsDir returns the per-step log directory.
func (s *FileStore) LogsDir() string {
	return filepath.Join(s.dir, LogsDirName)
}

// SavePlan persists the plan atomically.
func (s *FileStore) SavePlan(_ context.Context, plan *engine.Plan) error {
	return s.writeJSON(s.PlanPath(), plan)
}

// LoadPlan reads the persisted plan, verifying its schema version.
func (s *FileStore) LoadPlan(_ context.Context) (*engine.Plan, error) {
	var plan engine.Plan
	if err := s.readJSON(s.PlanPath(), &plan); err != nil {
		return nil, err
	}
	if plan.PlanVersion != engine.PlanVersion {
		return nil, engine.NewIntegrityError(
			fmt.Sprintf("unsupported plan version %q", plan.PlanVersion), nil).
			WithCode(engine.ErrCodeVersionMismatch)
	}
	return &plan, nil
}

// SaveState persists the state ledger atomically. The runner calls this
// after every step transition.
func (s *FileStore) SaveState(_ context.Context, state *engine.State) error {
	return s.writeJSON(s.StatePath(), state)
}

// LoadState reads the persisted state ledger, verifying its schema
// version. Pairing with a plan is verified separately via
// engine.VerifyAlignment.
func (s *FileStore) LoadState(_ context.Context) (*engine.State, error) {
	var state engine.State
	if err := s.readJSON(s.StatePath(), &state); err != nil {
		return nil, err
	}
	if state.StateVersion != engine.StateVersion {
		return nil, engine.NewIntegrityError(
			fmt.Sprintf("unsupported state version %q", state.StateVersion), nil).
			WithCode(engine.ErrCodeVersionMismatch)
	}
	return &state, nil
}

// HasState reports whether a state file exists, which signals an
// interrupted or completed prior run.
func (s *FileStore) HasState() bool {
	_, err := os.Stat(s.StatePath())
	return err == nil
}

// Archive moves the current plan, state, and logs into a timestamped
// archive subdirectory and returns its path. Used when the user starts
// over instead of resuming.
func (s *FileStore) Archive(_ context.Context) (string, error) {
	stamp := time.Now().Format("20060102-150405")
	dest := filepath.Join(s.dir, archiveDirName, stamp)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	for _, name := range []string{PlanFileName, StateFileName, LogsDirName} {
		src := filepath.Join(s.dir, name)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := os.Rename(src, filepath.Join(dest, name)); err != nil {
			return "", fmt.Errorf("failed to archive %s: %w", name, err)
		}
	}
	return dest, nil
}

// writeJSON marshals v and writes it with a tmp+rename strategy. If the
// rename fails the tmp file is cleaned up.
func (s *FileStore) writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifacts directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write tmp artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}

func (s *FileStore) readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("failed to read artifact: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}
	return nil
}
