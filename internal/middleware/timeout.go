package middleware

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware bounds the context of every request. Handlers see the
// deadline through r.Context() and stop provider calls and commits with it.
func TimeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}
