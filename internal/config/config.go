// Package config defines the application configuration, loaded through viper
// from defaults, an optional YAML file and NYX_-prefixed environment
// variables (dots become underscores, e.g. NYX_HISTORY_BACKEND).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// History backends.
const (
	HistoryBackendMemory   = "memory"
	HistoryBackendPostgres = "postgres"
)

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	Validator  ValidatorConfig  `mapstructure:"validator" yaml:"validator"`
	History    HistoryConfig    `mapstructure:"history" yaml:"history"`
}

// LoggerConfig configures the global zap logger. The console format drives a
// colorized human-readable encoder; anything else emits JSON. A non-empty
// LogFile adds a rotated JSON file sink.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for each console log level.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// ServerConfig configures the HTTP facade.
type ServerConfig struct {
	Addr            string          `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration   `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration   `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// RateLimitConfig bounds per-client request rates on the HTTP facade.
// RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" yaml:"rps"`
	Burst int     `mapstructure:"burst" yaml:"burst"`
}

// ClassifierConfig tunes the intent classifier.
type ClassifierConfig struct {
	CacheEnabled bool `mapstructure:"cache_enabled" yaml:"cache_enabled"`
}

// ValidatorConfig tunes the recursive validator.
type ValidatorConfig struct {
	MaxIterations int     `mapstructure:"max_iterations" yaml:"max_iterations"`
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
}

// HistoryConfig selects and sizes the request history store.
type HistoryConfig struct {
	Backend  string         `mapstructure:"backend" yaml:"backend"`
	Limit    int            `mapstructure:"limit" yaml:"limit"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

// PostgresConfig holds the connection details for the durable history store.
type PostgresConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// SetDefaults registers every default value on the given viper instance.
// Call it before reading any config file so that partial files work.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "nyx")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "red")

	// -- Server --
	v.SetDefault("server.addr", ":8090")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.rate_limit.rps", 10.0)
	v.SetDefault("server.rate_limit.burst", 20)

	// -- Classifier --
	v.SetDefault("classifier.cache_enabled", true)

	// -- Validator --
	v.SetDefault("validator.max_iterations", 3)
	v.SetDefault("validator.min_confidence", 0.85)

	// -- History --
	v.SetDefault("history.backend", HistoryBackendMemory)
	v.SetDefault("history.limit", 1000)
	v.SetDefault("history.postgres.url", "")
}

// BindEnvironment wires the NYX_ environment prefix onto the viper instance.
func BindEnvironment(v *viper.Viper) {
	v.SetEnvPrefix("NYX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Sensitive values are env-only, never written to config files.
	v.BindEnv("history.postgres.url", "NYX_HISTORY_POSTGRES_URL")
}

// NewConfigFromViper unmarshals and validates the full configuration.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Validator.MaxIterations <= 0 {
		return fmt.Errorf("validator.max_iterations must be a positive integer")
	}
	if c.Validator.MinConfidence < 0.0 || c.Validator.MinConfidence > 1.0 {
		return fmt.Errorf("validator.min_confidence must be between 0.0 and 1.0")
	}
	switch c.History.Backend {
	case HistoryBackendMemory:
	case HistoryBackendPostgres:
		if c.History.Postgres.URL == "" {
			return fmt.Errorf("history.postgres.url is required when history.backend is %q", HistoryBackendPostgres)
		}
	default:
		return fmt.Errorf("history.backend must be %q or %q, got %q",
			HistoryBackendMemory, HistoryBackendPostgres, c.History.Backend)
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit must not be negative")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Server.RateLimit.RPS > 0 && c.Server.RateLimit.Burst <= 0 {
		return fmt.Errorf("server.rate_limit.burst must be positive when rate limiting is enabled")
	}
	return nil
}
