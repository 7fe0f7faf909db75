package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/lumenforge/aac/internal/storage/db"
	"github.com/lumenforge/aac/internal/tokens"
)

// BearerAuth validates an access-token Authorization header and injects the
// resolved user, tenant, and org into the request context. Tenant isn't
// carried in the access token itself — it's resolved from the user row, so
// a stolen token can't be replayed against a different tenant by forging a
// header.
func BearerAuth(tok *tokens.Service, q *db.Queries, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				http.Error(w, "authorization header required", http.StatusUnauthorized)
				return
			}

			claims, err := tok.Validate(r.Context(), parts[1], tokens.KindAccess)
			if err != nil {
				log.Warn("auth: token validation failed", "err", err, "ip", r.RemoteAddr)
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				http.Error(w, "invalid token subject", http.StatusUnauthorized)
				return
			}

			user, err := q.GetUserByIDAnyTenant(r.Context(), userID)
			if err != nil {
				log.Warn("auth: resolving user for token failed", "err", err, "user_id", userID)
				http.Error(w, "invalid token subject", http.StatusUnauthorized)
				return
			}

			ctx := WithUserID(r.Context(), userID)
			ctx = WithTenantID(ctx, uuid.UUID(user.TenantID.Bytes))
			if claims.OrgID != "" {
				if orgID, err := uuid.Parse(claims.OrgID); err == nil {
					ctx = WithOrgID(ctx, orgID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
