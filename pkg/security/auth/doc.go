// Package auth is the seam where client authentication plugs into the API
// routes.
//
// The proxy ships with AllowAll, which admits every caller as Anonymous.
// A deployment that needs to gate callers supplies its own Authenticator;
// a rejection surfaces to the client as a 401 AUTHENTICATION_ERROR envelope.
package auth
