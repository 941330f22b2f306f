package middleware

import (
	"math"
	"net/http"
	"strconv"

	"dharmaverse/logger"
	"dharmaverse/ratelimit"
)

// RateLimit answers 429 with Retry-After once the client's bucket in store is empty.
func RateLimit(store *ratelimit.Store) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			allowed, retryAfter := store.Allow(ip)
			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}

				logger.WithFields(map[string]interface{}{
					"request_id":  RequestID(r.Context()),
					"ip":          ip,
					"path":        r.URL.Path,
					"retry_after": seconds,
				}).Warn("Rate limit exceeded")

				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				writeError(w, http.StatusTooManyRequests, "Too many attempts, please try again later", nil)
				return
			}
			next.ServeHTTP(w, r)
		}
	}
}
