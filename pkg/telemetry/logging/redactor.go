package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks credentials in log output.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Pattern names.
const (
	PatternGoogleAPIKey = "google_api_key"
	PatternKeyParam     = "key_param"
	PatternBearerToken  = "bearer_token"
)

// NewRedactor creates a Redactor with the built-in credential patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []*redactPattern{
			{
				name:        PatternKeyParam,
				regex:       regexp.MustCompile(`([?&]key=)[^&\s"']+`),
				replacement: "${1}REDACTED",
			},
			{
				name:        PatternGoogleAPIKey,
				regex:       regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`),
				replacement: "AIza***",
			},
			{
				name:        PatternBearerToken,
				regex:       regexp.MustCompile(`(?i)(bearer\s+)[a-z0-9._~+/=-]+`),
				replacement: "${1}***",
			},
		},
	}
}

// RedactString masks every credential found in value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook. Attributes whose key
// names a secret are masked outright; string and error values are scanned.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, "***")
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return a
}

func isSensitiveKey(key string) bool {
	switch strings.ToLower(key) {
	case "api_key", "apikey", "password", "secret", "authorization", "token":
		return true
	}
	return false
}
