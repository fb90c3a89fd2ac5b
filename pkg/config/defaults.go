package config

import "time"

// Default configuration values.
const (
	DefaultListenAddress   = "0.0.0.0:3001"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 150 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodyBytes    = 10 * 1024 * 1024
	DefaultCORSMaxAge      = 86400
	DefaultTLSMinVersion   = "1.2"
	DefaultTLSReload       = 5 * time.Minute

	DefaultGeminiBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiEditModel     = "gemini-2.5-flash-image"
	DefaultGeminiGenerateModel = "imagen-4.0-generate-001"
	DefaultGeminiTimeout       = 120 * time.Second

	DefaultRateLimitWindow      = 60 * time.Second
	DefaultRateLimitMaxRequests = 30
	DefaultRateLimitBackend     = "memory"
	DefaultRedisAddress         = "localhost:6379"
	DefaultRedisKeyPrefix       = "atelier:ratelimit:"
	DefaultMaxPromptLength      = 2000
	DefaultMaxImageBytes        = 10 * 1024 * 1024
	DefaultReportSchedule       = "@every 1m"

	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "atelier"
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 1.0
	DefaultServiceName        = "atelier"
	DefaultHealthCheckTimeout = 5 * time.Second
)

var (
	defaultAllowedOrigins = []string{"*"}
	defaultAllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	defaultAllowedHeaders = []string{"Content-Type", "Authorization", "X-Requested-With"}
	defaultExposedHeaders = []string{
		"X-RateLimit-Limit",
		"X-RateLimit-Remaining",
		"X-RateLimit-Reset",
		"Retry-After",
		"X-Request-ID",
	}
	defaultDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
)

// NewDefaultConfig returns a configuration with every default applied.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in zero-valued fields with their default values.
// Fields that are already set are left untouched.
func ApplyDefaults(cfg *Config) {
	applyProxyDefaults(&cfg.Proxy)
	applyGeminiDefaults(&cfg.Gemini)
	applyLimitsDefaults(&cfg.Limits)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyProxyDefaults(p *ProxyConfig) {
	if p.ListenAddress == "" {
		p.ListenAddress = DefaultListenAddress
	}
	if p.ReadTimeout == 0 {
		p.ReadTimeout = DefaultReadTimeout
	}
	if p.WriteTimeout == 0 {
		p.WriteTimeout = DefaultWriteTimeout
	}
	if p.IdleTimeout == 0 {
		p.IdleTimeout = DefaultIdleTimeout
	}
	if p.ShutdownTimeout == 0 {
		p.ShutdownTimeout = DefaultShutdownTimeout
	}
	if p.MaxBodyBytes == 0 {
		p.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if p.TrustProxyHeaders == nil {
		p.TrustProxyHeaders = boolPtr(true)
	}
	if len(p.CORS.AllowedOrigins) == 0 {
		p.CORS.AllowedOrigins = append([]string(nil), defaultAllowedOrigins...)
	}
	if len(p.CORS.AllowedMethods) == 0 {
		p.CORS.AllowedMethods = append([]string(nil), defaultAllowedMethods...)
	}
	if len(p.CORS.AllowedHeaders) == 0 {
		p.CORS.AllowedHeaders = append([]string(nil), defaultAllowedHeaders...)
	}
	if len(p.CORS.ExposedHeaders) == 0 {
		p.CORS.ExposedHeaders = append([]string(nil), defaultExposedHeaders...)
	}
	if p.CORS.MaxAge == 0 {
		p.CORS.MaxAge = DefaultCORSMaxAge
	}
	if p.TLS.MinVersion == "" {
		p.TLS.MinVersion = DefaultTLSMinVersion
	}
	if p.TLS.ReloadInterval == 0 {
		p.TLS.ReloadInterval = DefaultTLSReload
	}
}

func applyGeminiDefaults(g *GeminiConfig) {
	if g.BaseURL == "" {
		g.BaseURL = DefaultGeminiBaseURL
	}
	if g.EditModel == "" {
		g.EditModel = DefaultGeminiEditModel
	}
	if g.GenerateModel == "" {
		g.GenerateModel = DefaultGeminiGenerateModel
	}
	if g.Timeout == 0 {
		g.Timeout = DefaultGeminiTimeout
	}
}

func applyLimitsDefaults(l *LimitsConfig) {
	rl := &l.RateLimit
	if rl.Enabled == nil {
		rl.Enabled = boolPtr(true)
	}
	if rl.Window == 0 {
		rl.Window = DefaultRateLimitWindow
	}
	if rl.MaxRequests == 0 {
		rl.MaxRequests = DefaultRateLimitMaxRequests
	}
	if rl.Backend == "" {
		rl.Backend = DefaultRateLimitBackend
	}
	if rl.Redis.Address == "" {
		rl.Redis.Address = DefaultRedisAddress
	}
	if rl.Redis.KeyPrefix == "" {
		rl.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	if l.MaxPromptLength == 0 {
		l.MaxPromptLength = DefaultMaxPromptLength
	}
	if l.MaxImageBytes == 0 {
		l.MaxImageBytes = DefaultMaxImageBytes
	}
	if l.ReportSchedule == "" {
		l.ReportSchedule = DefaultReportSchedule
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLogLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLogFormat
	}
	if t.Logging.RedactSecrets == nil {
		t.Logging.RedactSecrets = boolPtr(true)
	}

	if t.Metrics.Enabled == nil {
		t.Metrics.Enabled = boolPtr(true)
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(t.Metrics.DurationBuckets) == 0 {
		t.Metrics.DurationBuckets = append([]float64(nil), defaultDurationBuckets...)
	}

	if t.Tracing.Endpoint == "" {
		t.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 && t.Tracing.Sampler == "ratio" {
		t.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultServiceName
	}

	if t.Health.CheckTimeout == 0 {
		t.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}

func boolPtr(b bool) *bool {
	return &b
}
