package db

import (
	"context"

	"github.com/google/uuid"
)

type CreateTenantParams struct {
	TenantID uuid.UUID
	Slug     string
	Label    string
}

func (q *Queries) CreateTenant(ctx context.Context, arg CreateTenantParams) (Tenant, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO tenants (tenant_id, slug, label, state)
		VALUES ($1, $2, $3, 'active')
		RETURNING tenant_id, slug, label, state, created_at`,
		arg.TenantID, arg.Slug, arg.Label)

	var t Tenant
	err := row.Scan(&t.TenantID, &t.Slug, &t.Label, &t.State, &t.CreatedAt)
	return t, err
}

func (q *Queries) GetTenantBySlug(ctx context.Context, slug string) (Tenant, error) {
	row := q.db.QueryRow(ctx, `
		SELECT tenant_id, slug, label, state, created_at
		FROM tenants WHERE lower(slug) = lower($1)`, slug)

	var t Tenant
	err := row.Scan(&t.TenantID, &t.Slug, &t.Label, &t.State, &t.CreatedAt)
	return t, err
}

func (q *Queries) GetTenantByID(ctx context.Context, tenantID uuid.UUID) (Tenant, error) {
	row := q.db.QueryRow(ctx, `
		SELECT tenant_id, slug, label, state, created_at
		FROM tenants WHERE tenant_id = $1`, tenantID)

	var t Tenant
	err := row.Scan(&t.TenantID, &t.Slug, &t.Label, &t.State, &t.CreatedAt)
	return t, err
}

func (q *Queries) SuspendTenant(ctx context.Context, tenantID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `UPDATE tenants SET state = 'suspended' WHERE tenant_id = $1`, tenantID)
	return err
}

func (q *Queries) IsTenantSuspended(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	var state string
	row := q.db.QueryRow(ctx, `SELECT state FROM tenants WHERE tenant_id = $1`, tenantID)
	if err := row.Scan(&state); err != nil {
		return false, err
	}
	return state == "suspended", nil
}
