package middleware

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/obs"
	"github.com/go-chi/chi/v5/middleware"
)

// Limiter decides whether a client may make another request.
type Limiter interface {
	Allow(key string) bool
}

// RateLimitMiddleware rejects requests with 429 once the client's bucket is
// empty. Clients are keyed by IP; run it after middleware.RealIP.
func RateLimitMiddleware(l Limiter, m *obs.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(clientIP(r)) {
				m.IncRateLimitDrops()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": "rate limit exceeded",
					"meta":  map[string]string{"request_id": middleware.GetReqID(r.Context())},
				})
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
