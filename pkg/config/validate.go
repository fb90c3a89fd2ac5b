package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "proxy.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration. All validation errors are
// collected and returned together. The upstream credential is not checked
// here: a server without one still starts and reports the problem per request.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateGemini(&cfg.Gemini)...)
	errs = append(errs, validateLimits(&cfg.Limits)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateProxy(p *ProxyConfig) []FieldError {
	var errs []FieldError

	if _, _, err := net.SplitHostPort(p.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "proxy.listen_address",
			Message: fmt.Sprintf("invalid address %q: %v", p.ListenAddress, err),
		})
	}
	if p.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.read_timeout", Message: "must not be negative"})
	}
	if p.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.write_timeout", Message: "must not be negative"})
	}
	if p.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{Field: "proxy.max_body_bytes", Message: "must not be negative"})
	}
	if p.CORS.MaxAge < 0 {
		errs = append(errs, FieldError{Field: "proxy.cors.max_age", Message: "must not be negative"})
	}
	if p.TLS.Enabled {
		if p.TLS.CertFile == "" {
			errs = append(errs, FieldError{Field: "proxy.tls.cert_file", Message: "required when TLS is enabled"})
		}
		if p.TLS.KeyFile == "" {
			errs = append(errs, FieldError{Field: "proxy.tls.key_file", Message: "required when TLS is enabled"})
		}
	}
	if p.TLS.MinVersion != "1.2" && p.TLS.MinVersion != "1.3" {
		errs = append(errs, FieldError{
			Field:   "proxy.tls.min_version",
			Message: fmt.Sprintf("must be 1.2 or 1.3, got %q", p.TLS.MinVersion),
		})
	}
	if p.TLS.ReloadInterval < 0 {
		errs = append(errs, FieldError{Field: "proxy.tls.reload_interval", Message: "must not be negative"})
	}

	return errs
}

func validateGemini(g *GeminiConfig) []FieldError {
	var errs []FieldError

	u, err := url.Parse(g.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "gemini.base_url",
			Message: fmt.Sprintf("must be an absolute URL, got %q", g.BaseURL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, FieldError{
			Field:   "gemini.base_url",
			Message: fmt.Sprintf("unsupported scheme %q", u.Scheme),
		})
	}
	if g.EditModel == "" {
		errs = append(errs, FieldError{Field: "gemini.edit_model", Message: "must not be empty"})
	}
	if g.GenerateModel == "" {
		errs = append(errs, FieldError{Field: "gemini.generate_model", Message: "must not be empty"})
	}
	if g.Timeout < 0 {
		errs = append(errs, FieldError{Field: "gemini.timeout", Message: "must not be negative"})
	}

	return errs
}

func validateLimits(l *LimitsConfig) []FieldError {
	var errs []FieldError
	rl := l.RateLimit

	if rl.Window <= 0 {
		errs = append(errs, FieldError{Field: "limits.rate_limit.window", Message: "must be positive"})
	}
	if rl.MaxRequests <= 0 {
		errs = append(errs, FieldError{Field: "limits.rate_limit.max_requests", Message: "must be positive"})
	}
	switch rl.Backend {
	case "memory":
	case "redis":
		if rl.Redis.Address == "" {
			errs = append(errs, FieldError{Field: "limits.rate_limit.redis.address", Message: "required for redis backend"})
		}
		if rl.Redis.DB < 0 {
			errs = append(errs, FieldError{Field: "limits.rate_limit.redis.db", Message: "must not be negative"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "limits.rate_limit.backend",
			Message: fmt.Sprintf("must be one of: memory, redis (got %q)", rl.Backend),
		})
	}

	if l.MaxPromptLength <= 0 {
		errs = append(errs, FieldError{Field: "limits.max_prompt_length", Message: "must be positive"})
	}
	if l.MaxImageBytes <= 0 {
		errs = append(errs, FieldError{Field: "limits.max_image_bytes", Message: "must be positive"})
	}
	if _, err := cron.ParseStandard(l.ReportSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "limits.report_schedule",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		})
	}

	return errs
}

func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch t.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("must be one of: debug, info, warn, error (got %q)", t.Logging.Level),
		})
	}
	switch t.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("must be one of: json, text (got %q)", t.Logging.Format),
		})
	}

	if t.MetricsEnabled() && !strings.HasPrefix(t.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "must start with /"})
	}

	if t.Tracing.Enabled {
		switch t.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("must be one of: always, never, ratio (got %q)", t.Tracing.Sampler),
			})
		}
		if t.Tracing.SampleRatio < 0 || t.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "must be between 0.0 and 1.0"})
		}
		if t.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "required when tracing is enabled"})
		}
	}

	if t.Health.CheckTimeout <= 0 {
		errs = append(errs, FieldError{Field: "telemetry.health.check_timeout", Message: "must be positive"})
	}

	return errs
}
