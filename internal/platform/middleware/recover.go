package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/Bahjat/structured-web-auditor/internal/platform/requestid"
)

// Recover turns a handler panic into a 500 response and an ERROR log entry.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logger.Error("handler panic",
					"panic", v,
					"path", r.URL.Path,
					"request_id", requestid.FromContext(r.Context()),
					"stack", string(debug.Stack()),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
