package middleware

import (
	"net/http"
	"strconv"

	"mercator-hq/atelier/pkg/limits/ratelimit"
	"mercator-hq/atelier/pkg/proxy"
	"mercator-hq/atelier/pkg/proxy/types"
	"mercator-hq/atelier/pkg/telemetry/logging"
)

// MsgTooManyRequests is the message sent to throttled clients.
const MsgTooManyRequests = "Too many requests. Please try again later."

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// RejectionObserver counts throttled requests.
type RejectionObserver interface {
	RateLimitRejected()
}

// RateLimitMiddleware counts every non-OPTIONS request against the client's
// fixed window and sets the X-RateLimit-* headers. Throttled requests get a
// 429 envelope with Retry-After and never reach next.
//
// If the counter store fails the request is let through and a warning is
// logged; an unavailable Redis must not take the proxy down.
func RateLimitMiddleware(limiter *ratelimit.Limiter, observer RejectionObserver, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := GetClientIP(ctx)
			if key == "" {
				key = proxy.ClientIP(r, trustProxy)
			}

			result, err := limiter.Check(ctx, key)
			if err != nil {
				logging.FromContext(ctx).WarnContext(ctx, "rate limit check failed, allowing request", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set(HeaderRateLimitLimit, strconv.Itoa(result.Limit))
			h.Set(HeaderRateLimitRemaining, strconv.Itoa(result.Remaining))
			h.Set(HeaderRateLimitReset, strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				if observer != nil {
					observer.RateLimitRejected()
				}
				proxy.WriteError(w, r, types.NewRateLimitError(MsgTooManyRequests, result.RetryAfter))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
