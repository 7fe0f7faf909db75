package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lumenforge/aac/internal/telemetry"
)

// RequestLogger logs each completed request and records its Prometheus
// counters/histogram, wrapping the response writer to capture the status
// chi itself never exposes.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			} else if status >= 400 {
				level = slog.LevelWarn
			}
			log.Log(r.Context(), level, "http_request_completed",
				"status", status, "method", r.Method, "path", r.URL.Path,
				"duration", duration, "req_id", chimw.GetReqID(r.Context()),
			)

			statusLabel := statusBucket(status)
			telemetry.HTTPRequestsTotal.WithLabelValues(r.Method, routePattern(r), statusLabel).Inc()
			telemetry.HTTPRequestDuration.WithLabelValues(r.Method, routePattern(r)).Observe(duration.Seconds())
		})
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func statusBucket(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
