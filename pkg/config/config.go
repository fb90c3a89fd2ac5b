package config

import "time"

// Config is the root configuration structure for Atelier.
// It contains all configuration sections for the image proxy.
type Config struct {
	// Proxy contains HTTP server configuration.
	Proxy ProxyConfig `yaml:"proxy"`

	// Gemini contains upstream generative-image API configuration.
	Gemini GeminiConfig `yaml:"gemini"`

	// Limits contains rate limiting and payload limit configuration.
	Limits LimitsConfig `yaml:"limits"`

	// Telemetry contains logging, metrics, tracing and health configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyConfig contains HTTP server configuration.
type ProxyConfig struct {
	// ListenAddress is the address the HTTP server binds to.
	// Default: "0.0.0.0:3001"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// It must outlast the upstream timeout.
	// Default: 150s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes is the largest accepted request body.
	// Default: 10485760 (10MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// TrustProxyHeaders enables client IP extraction from CF-Connecting-IP,
	// X-Forwarded-For and X-Real-IP.
	// Default: true
	TrustProxyHeaders *bool `yaml:"trust_proxy_headers"`

	// CORS contains cross-origin configuration.
	CORS CORSConfig `yaml:"cors"`

	// TLS terminates HTTPS on the listener itself.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig contains listener TLS configuration.
type TLSConfig struct {
	// Enabled serves HTTPS instead of plain HTTP.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is the PEM-encoded certificate chain.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the PEM-encoded private key.
	KeyFile string `yaml:"key_file"`

	// MinVersion is the lowest accepted protocol version.
	// Options: "1.2", "1.3"
	// Default: "1.2"
	MinVersion string `yaml:"min_version"`

	// ReloadInterval is how often the pair is checked for renewal.
	// Default: 5m
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// CORSConfig contains cross-origin resource sharing configuration.
type CORSConfig struct {
	// AllowedOrigins lists origins allowed to call the API.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods lists methods advertised on preflight.
	// Default: ["GET", "POST", "PUT", "DELETE", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders lists request headers advertised on preflight.
	// Default: ["Content-Type", "Authorization", "X-Requested-With"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders lists response headers readable by browsers.
	// Default: rate limit headers and X-Request-ID
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the preflight cache lifetime in seconds.
	// Default: 86400
	MaxAge int `yaml:"max_age"`
}

// GeminiConfig contains upstream API configuration.
type GeminiConfig struct {
	// BaseURL is the versioned API root.
	// Default: "https://generativelanguage.googleapis.com/v1beta"
	BaseURL string `yaml:"base_url"`

	// EditModel is the model used for the edit action.
	// Default: "gemini-2.5-flash-image"
	EditModel string `yaml:"edit_model"`

	// GenerateModel is the model used for the generate action.
	// Default: "imagen-4.0-generate-001"
	GenerateModel string `yaml:"generate_model"`

	// Timeout bounds a single upstream call.
	// Default: 120s
	Timeout time.Duration `yaml:"timeout"`

	// APIKey is the upstream credential. It is normally left empty in the
	// file and resolved from GEMINI_API_KEY or VITE_GEMINI_API_KEY.
	APIKey string `yaml:"api_key"`
}

// LimitsConfig contains rate limiting and payload limits.
type LimitsConfig struct {
	// RateLimit configures the per-client fixed window limiter.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// MaxPromptLength is the maximum prompt length in characters.
	// Default: 2000
	MaxPromptLength int `yaml:"max_prompt_length"`

	// MaxImageBytes is the maximum decoded size of each edit image.
	// Default: 10485760 (10MB)
	MaxImageBytes int64 `yaml:"max_image_bytes"`

	// ReportSchedule is the cron spec for publishing limiter statistics.
	// Default: "@every 1m"
	ReportSchedule string `yaml:"report_schedule"`
}

// RateLimitConfig configures the fixed window rate limiter.
type RateLimitConfig struct {
	// Enabled controls whether requests are rate limited.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Window is the fixed window length.
	// Default: 60s
	Window time.Duration `yaml:"window"`

	// MaxRequests is the number of requests allowed per window.
	// Default: 30
	MaxRequests int `yaml:"max_requests"`

	// Backend selects the counter store.
	// Options: "memory", "redis"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// Redis configures the shared counter store.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	// Address is the host:port of the Redis server.
	// Default: "localhost:6379"
	Address string `yaml:"address"`

	// Password is the optional Redis password.
	Password string `yaml:"password"`

	// DB is the Redis database number.
	// Default: 0
	DB int `yaml:"db"`

	// KeyPrefix namespaces counter keys.
	// Default: "atelier:ratelimit:"
	KeyPrefix string `yaml:"key_prefix"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks API keys and bearer tokens in log output.
	// Default: true
	RedactSecrets *bool `yaml:"redact_secrets"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes all metric names.
	// Default: "atelier"
	Namespace string `yaml:"namespace"`

	// DurationBuckets are histogram buckets in seconds.
	// Default: [0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "atelier"
	ServiceName string `yaml:"service_name"`
}

// HealthConfig contains health check configuration.
type HealthConfig struct {
	// CheckTimeout bounds each upstream reachability probe.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// RateLimitEnabled reports whether rate limiting is switched on.
func (c *LimitsConfig) RateLimitEnabled() bool {
	return c.RateLimit.Enabled == nil || *c.RateLimit.Enabled
}

// MetricsEnabled reports whether the metrics endpoint is served.
func (c *TelemetryConfig) MetricsEnabled() bool {
	return c.Metrics.Enabled == nil || *c.Metrics.Enabled
}

// RedactEnabled reports whether log redaction is switched on.
func (c *LoggingConfig) RedactEnabled() bool {
	return c.RedactSecrets == nil || *c.RedactSecrets
}

// TrustProxy reports whether forwarding headers identify the client.
func (c *ProxyConfig) TrustProxy() bool {
	return c.TrustProxyHeaders == nil || *c.TrustProxyHeaders
}
