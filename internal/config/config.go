package config

import "time"

// Config is the complete proxyscout configuration. Values come from built-in
// defaults, an optional YAML file, and PROXYSCOUT_* environment variables, in
// increasing order of precedence.
type Config struct {
	Server    ServerConfig   `mapstructure:"server" yaml:"server"`
	Store     StoreConfig    `mapstructure:"store" yaml:"store"`
	Source    SourceConfig   `mapstructure:"source" yaml:"source"`
	Verifier  VerifierConfig `mapstructure:"verifier" yaml:"verifier"`
	Batch     BatchConfig    `mapstructure:"batch" yaml:"batch"`
	Logging   LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Metrics   MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	Health    HealthConfig   `mapstructure:"health" yaml:"health"`
	UserAgent string         `mapstructure:"user_agent" yaml:"user_agent"`

	RateLimits      []RateLimitOverride `mapstructure:"rate_limits" yaml:"rate_limits"`
	RateLimitMargin float64             `mapstructure:"rate_limit_margin" yaml:"rate_limit_margin"`
}

// RateLimitOverride replaces the per-minute request budget for one upstream
// host. Hosts are listed rather than used as map keys because viper splits
// keys on dots.
type RateLimitOverride struct {
	Host              string `mapstructure:"host" yaml:"host"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// RateLimitOverrides returns the overrides keyed by host.
func (c *Config) RateLimitOverrides() map[string]int {
	if c == nil || len(c.RateLimits) == 0 {
		return nil
	}
	overrides := make(map[string]int, len(c.RateLimits))
	for _, override := range c.RateLimits {
		overrides[override.Host] = override.RequestsPerMinute
	}
	return overrides
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// RequestsPerSecond and Burst throttle /v1 per client IP. Zero disables.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

// StoreConfig contains database configuration for libsql/Turso. The store
// only holds upstream rate-limit state.
type StoreConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Driver    string `mapstructure:"driver" yaml:"driver"`
	Path      string `mapstructure:"path" yaml:"path"`
	URL       string `mapstructure:"url" yaml:"url"`
	AuthToken string `mapstructure:"auth_token" yaml:"auth_token,omitempty"`
}

// SourceConfig configures the candidate list endpoint.
type SourceConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// VerifierConfig configures the online check endpoint.
type VerifierConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Field   string        `mapstructure:"field" yaml:"field"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// BatchConfig holds defaults for scrape runs.
type BatchConfig struct {
	DefaultCount int `mapstructure:"default_count" yaml:"default_count"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`

	// Profile is SIMPLE or STRUCTURED.
	Profile string `mapstructure:"profile" yaml:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the dedicated Prometheus exporter port.
	Port int `mapstructure:"port" yaml:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}
