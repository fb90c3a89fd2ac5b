package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// APIKeyEnvVars are the environment variables consulted for the upstream
// credential, in priority order.
var APIKeyEnvVars = []string{"GEMINI_API_KEY", "VITE_GEMINI_API_KEY"}

// EnvProvider loads secrets from environment variables.
//
// Secret names are converted to uppercase environment variable names with
// hyphens replaced by underscores, then prefixed. Aliases map a secret name
// to an ordered list of variables where the first non-empty one wins.
//
// Example:
//   - Secret name: "gemini-api-key"
//   - Env var name: "ATELIER_GEMINI_API_KEY" (with prefix "ATELIER_")
type EnvProvider struct {
	Prefix  string
	Aliases map[string][]string

	lookup func(string) (string, bool)
}

// NewEnvProvider creates a new environment variable secret provider.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{
		Prefix:  prefix,
		Aliases: make(map[string][]string),
		lookup:  os.LookupEnv,
	}
}

// GetSecret retrieves a secret from the environment.
func (p *EnvProvider) GetSecret(ctx context.Context, name string) (string, error) {
	vars, ok := p.Aliases[name]
	if !ok {
		vars = []string{p.secretNameToEnvVar(name)}
	}

	if value, _, found := p.firstPresent(vars); found {
		return value, nil
	}
	return "", fmt.Errorf("%w: %s (env vars: %s)", ErrSecretNotFound, name, strings.Join(vars, ", "))
}

// Provider returns the provider name.
func (p *EnvProvider) Provider() string {
	return "env"
}

func (p *EnvProvider) firstPresent(vars []string) (value, from string, ok bool) {
	lookup := p.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, v := range vars {
		if value, ok := lookup(v); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), v, true
		}
	}
	return "", "", false
}

func (p *EnvProvider) secretNameToEnvVar(name string) string {
	return p.Prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// LookupAPIKey returns the upstream credential from the first non-empty
// variable in APIKeyEnvVars.
func LookupAPIKey() (string, bool) {
	p := &EnvProvider{lookup: os.LookupEnv}
	value, _, ok := p.firstPresent(APIKeyEnvVars)
	return value, ok
}

// APIKeySource reports which variable the credential was taken from, or ""
// when none is set.
func APIKeySource() string {
	p := &EnvProvider{lookup: os.LookupEnv}
	_, from, _ := p.firstPresent(APIKeyEnvVars)
	return from
}
