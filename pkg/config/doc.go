// Package config provides configuration management for Atelier.
//
// Configuration is read from a YAML file, completed with defaults and then
// overridden from the environment. A missing file is valid: every field has
// a default, and the upstream credential normally comes from the environment.
//
// # Environment Variables
//
//   - GEMINI_API_KEY, then VITE_GEMINI_API_KEY: upstream credential (first present wins)
//   - PORT: listen port, keeping the configured host
//   - ATELIER_LISTEN_ADDRESS: full listen address
//   - ATELIER_LOG_LEVEL, ATELIER_LOG_FORMAT
//   - ATELIER_RATE_LIMIT_BACKEND, ATELIER_RATE_LIMIT_MAX_REQUESTS, ATELIER_RATE_LIMIT_WINDOW
//   - ATELIER_REDIS_ADDRESS, ATELIER_REDIS_PASSWORD
//   - ATELIER_GEMINI_BASE_URL
//
// # Hot Reload
//
// Watcher observes the configuration file and calls back with the reloaded
// configuration. Only the log level and rate limit window settings are
// applied live; everything else requires a restart.
package config
