package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"mercator-hq/atelier/pkg/security/secrets"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// A missing file is not an error: the defaults are returned instead, so the
// proxy can run from environment variables alone.
// The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// fall through to defaults
	case err != nil:
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables always take
// precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// PORT is honoured for platform deployments; an explicit listen address wins.
	if v := os.Getenv("PORT"); v != "" {
		host, _, err := net.SplitHostPort(cfg.Proxy.ListenAddress)
		if err != nil {
			host = "0.0.0.0"
		}
		cfg.Proxy.ListenAddress = net.JoinHostPort(host, v)
	}
	if v := os.Getenv("ATELIER_LISTEN_ADDRESS"); v != "" {
		cfg.Proxy.ListenAddress = v
	}
	if v := os.Getenv("ATELIER_LOG_LEVEL"); v != "" {
		cfg.Telemetry.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("ATELIER_LOG_FORMAT"); v != "" {
		cfg.Telemetry.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv("ATELIER_RATE_LIMIT_BACKEND"); v != "" {
		cfg.Limits.RateLimit.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("ATELIER_RATE_LIMIT_MAX_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.RateLimit.MaxRequests = n
		}
	}
	if v := os.Getenv("ATELIER_RATE_LIMIT_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Limits.RateLimit.Window = d
		}
	}
	if v := os.Getenv("ATELIER_REDIS_ADDRESS"); v != "" {
		cfg.Limits.RateLimit.Redis.Address = v
	}
	if v := os.Getenv("ATELIER_REDIS_PASSWORD"); v != "" {
		cfg.Limits.RateLimit.Redis.Password = v
	}
	if v := os.Getenv("ATELIER_GEMINI_BASE_URL"); v != "" {
		cfg.Gemini.BaseURL = v
	}

	if key, ok := secrets.LookupAPIKey(); ok {
		cfg.Gemini.APIKey = key
	}
}
