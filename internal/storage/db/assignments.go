package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AssignParams struct {
	AssignmentID uuid.UUID
	TenantID     uuid.UUID
	UserID       uuid.UUID
	OrgNodeID    uuid.UUID
	RoleID       uuid.UUID
	Start        time.Time
}

func (q *Queries) Assign(ctx context.Context, arg AssignParams) (OrgAssignment, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO org_assignments (assignment_id, tenant_id, user_id, org_node_id, role_id, start_at, end_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULL)
		RETURNING assignment_id, tenant_id, user_id, org_node_id, role_id, start_at, end_at`,
		arg.AssignmentID, arg.TenantID, arg.UserID, arg.OrgNodeID, arg.RoleID, arg.Start)

	var a OrgAssignment
	err := row.Scan(&a.AssignmentID, &a.TenantID, &a.UserID, &a.OrgNodeID, &a.RoleID, &a.StartAt, &a.EndAt)
	return a, err
}

// EndAssignment transitions end_at from NULL to at, rejecting the write
// entirely if end_at is already set or at is before start_at — the
// assignment's history is immutable past that single transition.
func (q *Queries) EndAssignment(ctx context.Context, assignmentID uuid.UUID, at time.Time) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE org_assignments SET end_at = $2
		WHERE assignment_id = $1 AND end_at IS NULL AND start_at <= $2`, assignmentID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows
	}
	return nil
}

func (q *Queries) GetAssignment(ctx context.Context, assignmentID uuid.UUID) (OrgAssignment, error) {
	row := q.db.QueryRow(ctx, `
		SELECT assignment_id, tenant_id, user_id, org_node_id, role_id, start_at, end_at
		FROM org_assignments WHERE assignment_id = $1`, assignmentID)

	var a OrgAssignment
	err := row.Scan(&a.AssignmentID, &a.TenantID, &a.UserID, &a.OrgNodeID, &a.RoleID, &a.StartAt, &a.EndAt)
	return a, err
}

// ListActiveAssignments returns every assignment active at `at` for user
// within tenant — the per-decision snapshot the authorization engine reads.
func (q *Queries) ListActiveAssignments(ctx context.Context, tenantID, userID uuid.UUID, at time.Time) ([]OrgAssignment, error) {
	rows, err := q.db.Query(ctx, `
		SELECT assignment_id, tenant_id, user_id, org_node_id, role_id, start_at, end_at
		FROM org_assignments
		WHERE tenant_id = $1 AND user_id = $2 AND start_at <= $3 AND (end_at IS NULL OR end_at > $3)`,
		tenantID, userID, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrgAssignment
	for rows.Next() {
		var a OrgAssignment
		if err := rows.Scan(&a.AssignmentID, &a.TenantID, &a.UserID, &a.OrgNodeID, &a.RoleID, &a.StartAt, &a.EndAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListActiveAssignmentsMatching finds every currently-active assignment for
// the exact (user, role, org_node) triple — used by Replace's end-then-assign.
func (q *Queries) ListActiveAssignmentsMatching(ctx context.Context, tenantID, userID, roleID, orgNodeID uuid.UUID, at time.Time) ([]OrgAssignment, error) {
	rows, err := q.db.Query(ctx, `
		SELECT assignment_id, tenant_id, user_id, org_node_id, role_id, start_at, end_at
		FROM org_assignments
		WHERE tenant_id = $1 AND user_id = $2 AND role_id = $3 AND org_node_id = $4
		  AND start_at <= $5 AND (end_at IS NULL OR end_at > $5)`,
		tenantID, userID, roleID, orgNodeID, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrgAssignment
	for rows.Next() {
		var a OrgAssignment
		if err := rows.Scan(&a.AssignmentID, &a.TenantID, &a.UserID, &a.OrgNodeID, &a.RoleID, &a.StartAt, &a.EndAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (q *Queries) UpsertVisibilityGrant(ctx context.Context, grantID, tenantID, userID, orgNodeID uuid.UUID) (VisibilityGrant, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO visibility_grants (grant_id, tenant_id, user_id, org_node_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, user_id, org_node_id) DO UPDATE SET tenant_id = EXCLUDED.tenant_id
		RETURNING grant_id, tenant_id, user_id, org_node_id, created_at`,
		grantID, tenantID, userID, orgNodeID)

	var g VisibilityGrant
	err := row.Scan(&g.GrantID, &g.TenantID, &g.UserID, &g.OrgNodeID, &g.CreatedAt)
	return g, err
}

func (q *Queries) DeleteVisibilityGrant(ctx context.Context, tenantID, userID, orgNodeID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		DELETE FROM visibility_grants WHERE tenant_id = $1 AND user_id = $2 AND org_node_id = $3`,
		tenantID, userID, orgNodeID)
	return err
}

func (q *Queries) ListVisibilityGrants(ctx context.Context, tenantID, userID uuid.UUID) ([]VisibilityGrant, error) {
	rows, err := q.db.Query(ctx, `
		SELECT grant_id, tenant_id, user_id, org_node_id, created_at
		FROM visibility_grants WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VisibilityGrant
	for rows.Next() {
		var g VisibilityGrant
		if err := rows.Scan(&g.GrantID, &g.TenantID, &g.UserID, &g.OrgNodeID, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
