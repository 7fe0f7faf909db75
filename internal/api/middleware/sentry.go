package middleware

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// TagSentryUser attaches the resolved user/tenant to the current Sentry
// scope so captured errors carry enough context to triage without a DB
// round trip.
func TagSentryUser(ctx context.Context, userID, tenantID string) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{ID: userID})
		scope.SetTag("tenant_id", tenantID)
	})
}
