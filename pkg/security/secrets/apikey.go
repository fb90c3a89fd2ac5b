package secrets

import (
	"errors"
	"regexp"
)

var (
	// ErrAPIKeyMissing is returned when no credential is configured.
	ErrAPIKeyMissing = errors.New("API key not configured")

	// ErrAPIKeyFormat is returned when the credential does not look like a
	// Google API key.
	ErrAPIKeyFormat = errors.New("invalid API key format")
)

var apiKeyPattern = regexp.MustCompile(`^AIza[A-Za-z0-9_-]{35}$`)

// ValidateAPIKey checks that key is present and shaped like a Google API key.
func ValidateAPIKey(key string) error {
	if key == "" {
		return ErrAPIKeyMissing
	}
	if !apiKeyPattern.MatchString(key) {
		return ErrAPIKeyFormat
	}
	return nil
}

// MaskAPIKey keeps the first four and last four characters of key.
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
