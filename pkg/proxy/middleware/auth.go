package middleware

import (
	"net/http"

	"mercator-hq/atelier/pkg/proxy"
	"mercator-hq/atelier/pkg/proxy/types"
	"mercator-hq/atelier/pkg/security/auth"
	"mercator-hq/atelier/pkg/telemetry/logging"
)

// AuthMiddleware admits requests through a. Preflight requests pass
// untouched. A rejected caller gets a 401 envelope; an admitted one has its
// principal stored in the request context. A nil a admits everyone.
func AuthMiddleware(a auth.Authenticator) func(http.Handler) http.Handler {
	if a == nil {
		a = auth.AllowAll{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			principal, err := a.Authenticate(r)
			if err != nil || principal == nil {
				logging.FromContext(ctx).WarnContext(ctx, "request not authenticated", "error", err)
				proxy.WriteError(w, r, types.NewAuthenticationError(""))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(ctx, principal)))
		})
	}
}
