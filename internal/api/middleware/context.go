// Package middleware holds the chi middleware chain: request context,
// authentication, authorization helpers, signing-envelope verification,
// rate limiting, logging, panic recovery, and Sentry tagging.
package middleware

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type contextKey string

const (
	userIDKey   contextKey = "user_id"
	tenantIDKey contextKey = "tenant_id"
	orgIDKey    contextKey = "org_id"
	clientIDKey contextKey = "client_id"
)

func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func UserID(ctx context.Context) (uuid.UUID, error) {
	v, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("user_id not present in request context")
	}
	return v, nil
}

func WithTenantID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantIDKey, id)
}

func TenantID(ctx context.Context) (uuid.UUID, error) {
	v, ok := ctx.Value(tenantIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("tenant_id not present in request context")
	}
	return v, nil
}

func WithOrgID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, orgIDKey, id)
}

func OrgID(ctx context.Context) (uuid.UUID, error) {
	v, ok := ctx.Value(orgIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("org_id not present in request context")
	}
	return v, nil
}

func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

func ClientID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(clientIDKey).(string)
	return v, ok
}
