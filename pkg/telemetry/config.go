package telemetry

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`

	// Format selects json or console output.
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`

	// Output is stdout, stderr, or a file path.
	Output string `yaml:"output"`
}

// MetricsConfig configures the run metrics collectors.
type MetricsConfig struct {
	// Enabled turns metric collection on.
	Enabled bool `yaml:"enabled"`

	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace"`
}

// DefaultLoggingConfig returns the logging defaults used by the CLI.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  "info",
		Format: "console",
		Output: "stderr",
	}
}

// DefaultMetricsConfig returns the metrics defaults used by the CLI.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "winforge",
	}
}
