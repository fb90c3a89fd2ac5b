package secrets

import (
	"context"
	"errors"
)

// ErrSecretNotFound is returned when no source holds the requested secret.
var ErrSecretNotFound = errors.New("secret not found")

// SecretProvider resolves named secrets from a backing store.
type SecretProvider interface {
	// GetSecret returns the secret value or an error wrapping ErrSecretNotFound.
	GetSecret(ctx context.Context, name string) (string, error)

	// Provider returns the provider name for logging.
	Provider() string
}
