package httpx

import (
	"net/http"
	"slices"
	"strings"
)

// RequireRole lets the request through only when the principal's role is one
// of allowed. Comparison ignores case.
func RequireRole(allowed ...string) Middleware {
	want := make([]string, len(allowed))
	for i, r := range allowed {
		want[i] = strings.ToLower(r)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			if !slices.Contains(want, strings.ToLower(p.Role)) {
				w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
				WriteError(w, http.StatusForbidden, "forbidden", "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
