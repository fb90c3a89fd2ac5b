package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// clearEnv unsets every variable applyEnvOverrides reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PORT", "ATELIER_LISTEN_ADDRESS", "ATELIER_LOG_LEVEL", "ATELIER_LOG_FORMAT",
		"ATELIER_RATE_LIMIT_BACKEND", "ATELIER_RATE_LIMIT_MAX_REQUESTS", "ATELIER_RATE_LIMIT_WINDOW",
		"ATELIER_REDIS_ADDRESS", "ATELIER_REDIS_PASSWORD", "ATELIER_GEMINI_BASE_URL",
		"GEMINI_API_KEY", "VITE_GEMINI_API_KEY",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeFile(t, `
proxy:
  listen_address: "0.0.0.0:8080"
  read_timeout: "60s"
  trust_proxy_headers: false

gemini:
  timeout: "90s"
  edit_model: "gemini-custom-image"

limits:
  rate_limit:
    window: "2m"
    max_requests: 100
    backend: "redis"
    redis:
      address: "redis:6379"
      db: 2

telemetry:
  logging:
    level: "debug"
    format: "text"
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Proxy.ListenAddress != "0.0.0.0:8080" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:8080", cfg.Proxy.ListenAddress)
	}
	if cfg.Proxy.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout %v, got %v", 60*time.Second, cfg.Proxy.ReadTimeout)
	}
	if cfg.Proxy.TrustProxy() {
		t.Error("expected trust_proxy_headers false to be honoured")
	}
	if cfg.Gemini.Timeout != 90*time.Second {
		t.Errorf("expected gemini timeout 90s, got %v", cfg.Gemini.Timeout)
	}
	if cfg.Gemini.EditModel != "gemini-custom-image" {
		t.Errorf("expected edit model override, got %q", cfg.Gemini.EditModel)
	}
	if cfg.Gemini.GenerateModel != DefaultGeminiGenerateModel {
		t.Errorf("expected default generate model, got %q", cfg.Gemini.GenerateModel)
	}
	if cfg.Limits.RateLimit.Window != 2*time.Minute || cfg.Limits.RateLimit.MaxRequests != 100 {
		t.Errorf("unexpected rate limit %d per %v", cfg.Limits.RateLimit.MaxRequests, cfg.Limits.RateLimit.Window)
	}
	if cfg.Limits.RateLimit.Redis.DB != 2 {
		t.Errorf("expected redis db 2, got %d", cfg.Limits.RateLimit.Redis.DB)
	}
	if cfg.Limits.RateLimit.Redis.KeyPrefix != DefaultRedisKeyPrefix {
		t.Errorf("expected default key prefix, got %q", cfg.Limits.RateLimit.Redis.KeyPrefix)
	}
	if cfg.Telemetry.MetricsEnabled() {
		t.Error("expected metrics disabled")
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}

	if cfg.Proxy.ListenAddress != DefaultListenAddress {
		t.Errorf("expected default listen address, got %q", cfg.Proxy.ListenAddress)
	}
	if cfg.Limits.RateLimit.MaxRequests != 30 || cfg.Limits.RateLimit.Window != time.Minute {
		t.Errorf("expected 30 per minute, got %d per %v", cfg.Limits.RateLimit.MaxRequests, cfg.Limits.RateLimit.Window)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeFile(t, "proxy: [unclosed")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	path := writeFile(t, `
limits:
  rate_limit:
    max_requests: -1
telemetry:
  logging:
    level: "verbose"
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"limits.rate_limit.max_requests", "telemetry.logging.level"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("expected error to mention %s, got: %v", field, err)
		}
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ATELIER_LOG_LEVEL", "WARN")
	t.Setenv("ATELIER_RATE_LIMIT_MAX_REQUESTS", "5")
	t.Setenv("ATELIER_RATE_LIMIT_WINDOW", "10s")
	t.Setenv("ATELIER_GEMINI_BASE_URL", "http://localhost:9999/v1beta")
	t.Setenv("VITE_GEMINI_API_KEY", "vite-key")

	path := writeFile(t, `
telemetry:
  logging:
    level: "debug"
`)

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected env log level to win, got %q", cfg.Telemetry.Logging.Level)
	}
	if cfg.Limits.RateLimit.MaxRequests != 5 || cfg.Limits.RateLimit.Window != 10*time.Second {
		t.Errorf("unexpected rate limit %d per %v", cfg.Limits.RateLimit.MaxRequests, cfg.Limits.RateLimit.Window)
	}
	if cfg.Gemini.BaseURL != "http://localhost:9999/v1beta" {
		t.Errorf("unexpected base url %q", cfg.Gemini.BaseURL)
	}
	if cfg.Gemini.APIKey != "vite-key" {
		t.Errorf("expected VITE_GEMINI_API_KEY fallback, got %q", cfg.Gemini.APIKey)
	}
}

func TestLoadConfigWithEnvOverrides_APIKeyPriority(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "primary")
	t.Setenv("VITE_GEMINI_API_KEY", "secondary")

	cfg, err := LoadConfigWithEnvOverrides(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Gemini.APIKey != "primary" {
		t.Errorf("expected GEMINI_API_KEY to win, got %q", cfg.Gemini.APIKey)
	}
}

func TestLoadConfigWithEnvOverrides_Port(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")

	path := writeFile(t, `
proxy:
  listen_address: "127.0.0.1:3001"
`)

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Proxy.ListenAddress != "127.0.0.1:8081" {
		t.Errorf("expected PORT to replace the port only, got %q", cfg.Proxy.ListenAddress)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("ATELIER_RATE_LIMIT_BACKEND", "etcd")

	_, err := LoadConfigWithEnvOverrides(filepath.Join(t.TempDir(), "none.yaml"))
	if err == nil {
		t.Fatal("expected validation error after override")
	}
	if !strings.Contains(err.Error(), "environment overrides") {
		t.Errorf("unexpected error: %v", err)
	}
}
