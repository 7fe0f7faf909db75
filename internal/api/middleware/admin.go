package middleware

import (
	"net/http"

	"github.com/lumenforge/aac/internal/crypto"
)

// AdminAuth gates bootstrap-only operations (tenant creation, service
// registration) behind a single shared key, never a user session — these
// operations precede any tenant or user existing at all.
func AdminAuth(adminAPIKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminAPIKey == "" || !crypto.SecureCompare(r.Header.Get("X-Admin-API-Key"), adminAPIKey) {
				http.Error(w, "admin authentication required", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
