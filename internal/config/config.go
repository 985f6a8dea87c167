// Package config loads daemon configuration from an optional yaml file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration values for the daemon.
type Config struct {
	// HTTP server port for the controller
	HTTPPort int `mapstructure:"http_port"`

	// StoreDriver selects the job store: file, postgres or sqlite.
	StoreDriver string `mapstructure:"store_driver"`

	// Database connection string, required for the postgres driver.
	DatabaseURL string `mapstructure:"database_url"`

	// DataDir holds jobs.json/credentials.json (file) or reposched.db (sqlite).
	DataDir string `mapstructure:"data_dir"`

	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
	ExecutionTimeout time.Duration `mapstructure:"execution_timeout"`

	// GitHub API base URL; override for GitHub Enterprise.
	GitHubAPIURL string `mapstructure:"github_api_url"`

	// GitHubToken is the fallback token for owners without a stored credential.
	GitHubToken string `mapstructure:"github_token"`

	// APIToken, when set, must be presented as a bearer token on every API call.
	APIToken string `mapstructure:"api_token"`

	// MultiUser requires the X-Owner-ID header on every API call.
	MultiUser bool `mapstructure:"multi_user"`

	// Per-owner request rate; 0 disables limiting.
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`

	// OTLP gRPC collector address; empty disables tracing.
	OTELEndpoint string `mapstructure:"otel_endpoint"`

	LogLevel string `mapstructure:"log_level"`
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"http_port":         "PORT",
	"store_driver":      "STORE_DRIVER",
	"database_url":      "DATABASE_URL",
	"data_dir":          "DATA_DIR",
	"sweep_interval":    "SWEEP_INTERVAL",
	"execution_timeout": "EXECUTION_TIMEOUT",
	"github_api_url":    "GITHUB_API_URL",
	"github_token":      "GITHUB_TOKEN",
	"api_token":         "API_TOKEN",
	"multi_user":        "MULTI_USER",
	"rate_limit":        "RATE_LIMIT",
	"rate_limit_burst":  "RATE_LIMIT_BURST",
	"otel_endpoint":     "OTEL_EXPORTER_OTLP_ENDPOINT",
	"log_level":         "LOG_LEVEL",
}

// Load reads configuration from path (if non-empty), then environment
// variables, which take precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("http_port", 6262)
	v.SetDefault("store_driver", DriverFile)
	v.SetDefault("data_dir", "./data")
	v.SetDefault("sweep_interval", 10*time.Second)
	v.SetDefault("execution_timeout", 30*time.Second)
	v.SetDefault("github_api_url", "https://api.github.com/")
	v.SetDefault("rate_limit", 10.0)
	v.SetDefault("rate_limit_burst", 20)
	v.SetDefault("log_level", "info")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("reposched")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))

	switch c.StoreDriver {
	case DriverFile, DriverSQLite:
		if c.DataDir == "" {
			return fmt.Errorf("data_dir is required for the %s driver (env: DATA_DIR)", c.StoreDriver)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required (env: DATABASE_URL)")
		}
	default:
		return fmt.Errorf("invalid store_driver %q: must be file, postgres or sqlite", c.StoreDriver)
	}

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port %d", c.HTTPPort)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be positive")
	}
	if c.ExecutionTimeout <= 0 {
		return fmt.Errorf("execution_timeout must be positive")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	return nil
}
