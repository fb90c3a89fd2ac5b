// Package secrets resolves the upstream credential and checks its shape.
//
// The credential is read from GEMINI_API_KEY, falling back to
// VITE_GEMINI_API_KEY; the first non-empty variable wins.
package secrets
