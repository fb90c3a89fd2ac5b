package proxy

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"mercator-hq/atelier/pkg/limits/ratelimit"
	"mercator-hq/atelier/pkg/proxy/types"
)

const (
	// RequestIDHeader carries a caller-supplied or generated request ID.
	RequestIDHeader = "X-Request-ID"

	// ContentTypeJSON is the only accepted request body type.
	ContentTypeJSON = "application/json"
)

// Client address headers, in order of precedence.
const (
	headerCFConnectingIP = "CF-Connecting-IP"
	headerForwardedFor   = "X-Forwarded-For"
	headerRealIP         = "X-Real-IP"
)

// MsgBodyTooLarge is returned when the request body exceeds the limit.
const MsgBodyTooLarge = "Request body too large."

// ReadBody reads the whole request body up to maxBytes. An oversized body
// is a validation error.
func ReadBody(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, types.NewValidationError(MsgBodyTooLarge)
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	return body, nil
}

// ClientIP identifies the caller for rate limiting. With trustProxy it
// prefers CF-Connecting-IP, then the first X-Forwarded-For hop, then
// X-Real-IP. It falls back to the connection's remote address, and finally
// to ratelimit.UnknownClient.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := strings.TrimSpace(r.Header.Get(headerCFConnectingIP)); ip != "" {
			return ip
		}
		if xff := r.Header.Get(headerForwardedFor); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get(headerRealIP)); ip != "" {
			return ip
		}
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}

	return ratelimit.UnknownClient
}
