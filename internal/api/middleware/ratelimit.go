package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/lumenforge/aac/internal/ratelimit"
)

// RateLimit buckets by client IP and the given class (by the verified client
// ID instead, for the client wildcard class on a signed route), rejecting
// with 429 once the bucket is exhausted. A denial carries Retry-After,
// X-RateLimit-Limit, and X-RateLimit-Remaining per spec.md §4.11.
func RateLimit(keyer *ratelimit.Keyer, class ratelimit.Class) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := clientIP(r)
			if id, ok := ClientID(r.Context()); ok && class == ratelimit.ClassClientWildcard {
				subject = id
			}
			ok, limiter := keyer.Allow(subject, class)
			if !ok {
				retryAfter := 1
				if rps := float64(limiter.Limit()); rps > 0 {
					retryAfter = int(math.Ceil(1 / rps))
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Burst()))
				w.Header().Set("X-RateLimit-Remaining", "0")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BotFilter rejects requests whose heuristic bot score meets or exceeds the
// reject threshold, unless the request is exempt (health/metrics/preflight
// or carrying an X-Signature header, which is not verified here).
func BotFilter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ratelimit.SkipBotFilter(r) {
			next.ServeHTTP(w, r)
			return
		}
		if ratelimit.BotScore(r) >= 100 {
			http.Error(w, "request rejected", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
