package httpx

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/magicontap/tapdash/pkg/slogx"
)

// Recover turns a panic in a handler into a 500 and logs the stack.
func Recover() Middleware {
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
				slogx.FromContext(r.Context()).Error("panic in handler",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				WriteError(w, http.StatusInternalServerError, "internal", "Internal server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
