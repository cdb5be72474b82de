package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/winforge/winforge/pkg/telemetry"
)

// Settings are the tool-level options loaded from an optional YAML file
// and overridable by flags.
type Settings struct {
	// ArtifactsDir is where plan, state, and logs are written.
	ArtifactsDir string `yaml:"artifactsDir"`

	// ScriptRoot is the directory script paths resolve against.
	ScriptRoot string `yaml:"scriptRoot"`

	// Logging configures the structured logger.
	Logging telemetry.LoggingConfig `yaml:"logging"`

	// Metrics configures run metric collection.
	Metrics telemetry.MetricsConfig `yaml:"metrics"`
}

// defaultSettingsFile is looked up when no --settings flag is given.
const defaultSettingsFile = "winforge.yaml"

// loadSettings reads the settings file (when present) and applies flag
// overrides and defaults.
func loadSettings() (*Settings, error) {
	settings := &Settings{
		ArtifactsDir: "artifacts",
		ScriptRoot:   ".",
		Logging:      telemetry.DefaultLoggingConfig(),
		Metrics:      telemetry.DefaultMetricsConfig(),
	}

	path := settingsPath
	optional := false
	if path == "" {
		path = defaultSettingsFile
		optional = true
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
		// No settings file; defaults apply.
	default:
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	if artifactsDir != "" {
		settings.ArtifactsDir = artifactsDir
	}
	if verbose {
		settings.Logging.Level = "debug"
	}

	return settings, nil
}

// newLogger builds the run logger from settings.
func newLogger(settings *Settings) (*telemetry.Logger, error) {
	logger, err := telemetry.NewLogger(settings.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
