package config

import (
	"fmt"
	"slices"
	"time"
)

type ObservabilityConfig struct {
	ServiceName  string             `koanf:"service_name" validate:"required"`
	Environment  string             `koanf:"environment" validate:"required"`
	Logging      LoggingConfig      `koanf:"logging" validate:"required"`
	NewRelic     NewRelicConfig     `koanf:"new_relic" validate:"required"`
	HealthChecks HealthChecksConfig `koanf:"health_checks" validate:"required"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"required"`
	Format string `koanf:"format" validate:"required"`

	// SlowQueryThreshold is a duration string such as "100ms". ORM
	// statements slower than this are logged at warn level.
	SlowQueryThreshold time.Duration `koanf:"slow_query_threshold"`
}

type NewRelicConfig struct {
	// LicenseKey empty means New Relic is not configured.
	LicenseKey                string `koanf:"license_key"`
	AppLogForwardingEnabled   bool   `koanf:"app_log_forwarding_enabled"`
	DistributedTracingEnabled bool   `koanf:"distributed_tracing_enabled"`
	DebugLogging              bool   `koanf:"debug_logging"`
}

type HealthChecksConfig struct {
	Enabled bool          `koanf:"enabled"`
	Timeout time.Duration `koanf:"timeout" validate:"min=1s"`
	// Checks names the dependencies probed by /status: "database", "redis".
	Checks []string `koanf:"checks"`
}

func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{
		ServiceName: "wikitype-api",
		Environment: "development",
		Logging: LoggingConfig{
			Level:              "info",
			Format:             "json",
			SlowQueryThreshold: 100 * time.Millisecond,
		},
		NewRelic: NewRelicConfig{
			AppLogForwardingEnabled:   true,
			DistributedTracingEnabled: true,
			// off by default so agent output does not interleave with JSON logs
			DebugLogging: false,
		},
		HealthChecks: HealthChecksConfig{
			Enabled: true,
			Timeout: 5 * time.Second,
			Checks:  []string{"database", "redis"},
		},
	}
}

var (
	logLevels    = []string{"debug", "info", "warn", "error"}
	logFormats   = []string{"json", "console"}
	healthChecks = []string{"database", "redis"}
)

// Validate checks the values koanf cannot type check. An empty log level is
// allowed and resolved per environment by GetLogLevel.
func (c *ObservabilityConfig) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}

	if c.Logging.Level != "" && !slices.Contains(logLevels, c.Logging.Level) {
		return fmt.Errorf("invalid logging level %q, must be one of %v", c.Logging.Level, logLevels)
	}

	if c.Logging.Format != "" && !slices.Contains(logFormats, c.Logging.Format) {
		return fmt.Errorf("invalid logging format %q, must be one of %v", c.Logging.Format, logFormats)
	}

	if c.Logging.SlowQueryThreshold < 0 {
		return fmt.Errorf("logging slow_query_threshold must be non-negative")
	}

	for _, check := range c.HealthChecks.Checks {
		if !slices.Contains(healthChecks, check) {
			return fmt.Errorf("unknown health check %q, must be one of %v", check, healthChecks)
		}
	}

	return nil
}

// GetLogLevel falls back to debug outside production when no level is set.
func (c *ObservabilityConfig) GetLogLevel() string {
	if c.Logging.Level != "" {
		return c.Logging.Level
	}
	if c.IsProduction() {
		return "info"
	}
	return "debug"
}

func (c *ObservabilityConfig) IsProduction() bool {
	return c.Environment == "production"
}

// Has reports whether the named health check is enabled.
func (h HealthChecksConfig) Has(check string) bool {
	return h.Enabled && slices.Contains(h.Checks, check)
}
