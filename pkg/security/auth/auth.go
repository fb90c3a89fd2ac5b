package auth

import (
	"context"
	"errors"
	"net/http"
)

// ErrUnauthenticated is returned by an Authenticator that rejects a caller.
var ErrUnauthenticated = errors.New("authentication failed")

// Anonymous is the principal of callers admitted without credentials.
const Anonymous = "anonymous"

// Principal identifies an admitted caller.
type Principal struct {
	// ID is a stable caller identifier suitable for logs.
	ID string
}

// Authenticator decides whether a request may reach an API handler.
type Authenticator interface {
	Authenticate(r *http.Request) (*Principal, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(r *http.Request) (*Principal, error)

// Authenticate implements Authenticator.
func (f AuthenticatorFunc) Authenticate(r *http.Request) (*Principal, error) {
	return f(r)
}

// AllowAll admits every request as Anonymous. It is the default: the proxy
// currently has no client credentials to check.
type AllowAll struct{}

// Authenticate implements Authenticator.
func (AllowAll) Authenticate(*http.Request) (*Principal, error) {
	return &Principal{ID: Anonymous}, nil
}

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}
