package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit applies a process-global request rate limit in front of all
// routes. Per-client quotas are handled separately by the quota ledger.
func RateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
