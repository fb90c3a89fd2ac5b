// Package types defines the wire envelopes of the API and the closed set of
// error kinds.
//
// Every response body is one of two shapes:
//
//	{"success": true, "data": {...}, "message": "...", "timestamp": "..."}
//	{"success": false, "error": "[request-id] message", "timestamp": "..."}
package types
