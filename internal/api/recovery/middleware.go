package recovery

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/ILara-wd/firebase-remote-config/internal/api/requestid"
	"github.com/ILara-wd/firebase-remote-config/internal/api/respond"
)

// Middleware intercepts panics from downstream handlers, logs details, and returns HTTP 500.
func Middleware(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error().
						Interface("panic", rec).
						Str("method", r.Method).
						Str("url", r.URL.String()).
						Str("remote", r.RemoteAddr).
						Str("request_id", requestid.FromContext(r.Context())).
						Bytes("stack", debug.Stack()).
						Msg("panic recovered")

					respond.WriteError(w, http.StatusInternalServerError, "Internal server error", fmt.Sprint(rec))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
