package telemetry

// LoggingConfig controls logger construction.
type LoggingConfig struct {
	// Level is the minimum level: trace, debug, info, warn, error, fatal.
	Level string `koanf:"level" json:"level"`

	// Format is "console" for human-readable output or "json".
	Format string `koanf:"format" json:"format"`

	// Output is "stdout", "stderr", or a file path.
	Output string `koanf:"output" json:"output"`
}

// DefaultLoggingConfig returns the config used when none is supplied:
// info-level console logging on stderr.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  "info",
		Format: "console",
		Output: "stderr",
	}
}

// MetricsConfig controls the Prometheus metrics collector.
type MetricsConfig struct {
	// Enabled turns metric collection on. When false all record methods
	// are no-ops.
	Enabled bool `koanf:"enabled" json:"enabled"`

	// Namespace prefixes every metric name.
	Namespace string `koanf:"namespace" json:"namespace"`
}

// DefaultMetricsConfig returns an enabled collector under the "vmzgen"
// namespace.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "vmzgen",
	}
}
