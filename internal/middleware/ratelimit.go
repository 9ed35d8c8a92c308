package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/afk-bro/watershed-campground-sub004/internal/metrics"
	"github.com/afk-bro/watershed-campground-sub004/internal/ratelimit"
)

// NewRateLimit allows each client address limit requests per window for the
// named scope. Wire it after chimiddleware.RealIP so proxied clients are
// told apart. Denied requests get 429 with Retry-After.
func NewRateLimit(l ratelimit.Limiter, scope string, limit int, window time.Duration) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(window.Round(time.Second) / time.Second))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + clientAddr(r) + ":" + scope
			if !l.Allow(r.Context(), key, limit, window) {
				metrics.RateLimitDenied.WithLabelValues(scope).Inc()
				w.Header().Set("Retry-After", retryAfter)
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
