package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"mercator-hq/atelier/pkg/proxy"
	"mercator-hq/atelier/pkg/proxy/types"
	"mercator-hq/atelier/pkg/telemetry/logging"
)

// PanicObserver counts recovered panics.
type PanicObserver interface {
	PanicRecovered()
}

// RecoveryMiddleware turns a handler panic into a 500 error envelope. The
// panic value and stack are logged server-side only.
//
// Example usage:
//
//	handler = RecoveryMiddleware(collector)(handler)
func RecoveryMiddleware(observer PanicObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logging.FromContext(r.Context()).ErrorContext(r.Context(), "panic in handler",
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()),
				)
				if observer != nil {
					observer.PanicRecovered()
				}

				proxy.WriteError(w, r, types.NewInternalError(proxy.MsgInternal, fmt.Errorf("panic: %v", rec)))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
