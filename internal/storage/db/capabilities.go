package db

import (
	"context"

	"github.com/google/uuid"
)

func (q *Queries) CreateCapability(ctx context.Context, capID uuid.UUID, capKey string) (Capability, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO capabilities (cap_id, cap_key) VALUES ($1, $2)
		RETURNING cap_id, cap_key, created_at`, capID, capKey)

	var c Capability
	err := row.Scan(&c.CapID, &c.CapKey, &c.CreatedAt)
	return c, err
}

func (q *Queries) GetCapabilityByKey(ctx context.Context, capKey string) (Capability, error) {
	row := q.db.QueryRow(ctx, `SELECT cap_id, cap_key, created_at FROM capabilities WHERE cap_key = $1`, capKey)

	var c Capability
	err := row.Scan(&c.CapID, &c.CapKey, &c.CreatedAt)
	return c, err
}

func (q *Queries) CreateRole(ctx context.Context, roleID, tenantID uuid.UUID, label string) (Role, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO roles (role_id, tenant_id, label) VALUES ($1, $2, $3)
		RETURNING role_id, tenant_id, label, created_at`, roleID, tenantID, label)

	var r Role
	err := row.Scan(&r.RoleID, &r.TenantID, &r.Label, &r.CreatedAt)
	return r, err
}

func (q *Queries) GetRole(ctx context.Context, tenantID, roleID uuid.UUID) (Role, error) {
	row := q.db.QueryRow(ctx, `
		SELECT role_id, tenant_id, label, created_at
		FROM roles WHERE tenant_id = $1 AND role_id = $2`, tenantID, roleID)

	var r Role
	err := row.Scan(&r.RoleID, &r.TenantID, &r.Label, &r.CreatedAt)
	return r, err
}

func (q *Queries) AttachCapability(ctx context.Context, roleID, capID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO role_capabilities (role_id, cap_id) VALUES ($1, $2)
		ON CONFLICT (role_id, cap_id) DO NOTHING`, roleID, capID)
	return err
}

func (q *Queries) DetachCapability(ctx context.Context, roleID, capID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM role_capabilities WHERE role_id = $1 AND cap_id = $2`, roleID, capID)
	return err
}

// ListRoleCapabilities returns the capability keys attached to role, already
// joined against the capability registry (so an orphaned role_capabilities
// row pointing at a deleted capability silently doesn't show up — the
// registry, not the mapping, is the source of truth for what is grantable).
func (q *Queries) ListRoleCapabilities(ctx context.Context, roleID uuid.UUID) ([]Capability, error) {
	rows, err := q.db.Query(ctx, `
		SELECT c.cap_id, c.cap_key, c.created_at
		FROM role_capabilities rc
		JOIN capabilities c ON c.cap_id = rc.cap_id
		WHERE rc.role_id = $1
		ORDER BY c.cap_key`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Capability
	for rows.Next() {
		var c Capability
		if err := rows.Scan(&c.CapID, &c.CapKey, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RoleHasCapability is the hot-path existence check the decision engine uses.
func (q *Queries) RoleHasCapability(ctx context.Context, roleID, capID uuid.UUID) (bool, error) {
	var exists bool
	row := q.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM role_capabilities WHERE role_id = $1 AND cap_id = $2)`, roleID, capID)
	err := row.Scan(&exists)
	return exists, err
}
