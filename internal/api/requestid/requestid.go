// Package requestid assigns each HTTP request a correlation id.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Header carries the per-request correlation id.
const Header = "X-Request-ID"

type ctxKey struct{}

// FromContext returns the id assigned by Middleware, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Middleware reuses an inbound X-Request-ID or mints one, echoes it on the response
// and attaches a request-scoped logger to the context.
func Middleware(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(Header)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(Header, id)
			l := log.With().Str("request_id", id).Logger()
			ctx := context.WithValue(r.Context(), ctxKey{}, id)
			next.ServeHTTP(w, r.WithContext(l.WithContext(ctx)))
		})
	}
}
