package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CreateOrgNodeParams struct {
	OrgNodeID uuid.UUID
	TenantID  uuid.UUID
	TypeCode  string
	Label     string
	ParentID  *uuid.UUID
}

// CreateOrgNode inserts the node and maintains the closure table in the same
// statement batch: the node's self row (N,N,0), then one row per ancestor of
// the parent reaching the new node, each one level deeper than it reached the
// parent. This keeps subtree queries an O(|matches|) index range scan.
func (q *Queries) CreateOrgNode(ctx context.Context, arg CreateOrgNodeParams) (OrgNode, error) {
	var parentArg pgtype.UUID
	if arg.ParentID != nil {
		parentArg = pgtype.UUID{Bytes: *arg.ParentID, Valid: true}
	}

	row := q.db.QueryRow(ctx, `
		INSERT INTO org_nodes (org_node_id, tenant_id, type_code, label, parent_org_node_id, active_flag)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING org_node_id, tenant_id, type_code, label, parent_org_node_id, active_flag, created_at`,
		arg.OrgNodeID, arg.TenantID, arg.TypeCode, arg.Label, parentArg)

	var n OrgNode
	if err := row.Scan(&n.OrgNodeID, &n.TenantID, &n.TypeCode, &n.Label, &n.ParentOrgNodeID, &n.ActiveFlag, &n.CreatedAt); err != nil {
		return OrgNode{}, fmt.Errorf("inserting org_node: %w", err)
	}

	// Self row.
	if _, err := q.db.Exec(ctx, `
		INSERT INTO org_node_paths (tenant_id, ancestor_org_node_id, descendant_org_node_id, depth_val)
		VALUES ($1, $2, $2, 0)`, arg.TenantID, arg.OrgNodeID); err != nil {
		return OrgNode{}, fmt.Errorf("inserting self closure row: %w", err)
	}

	if arg.ParentID != nil {
		// One row per ancestor of the parent (including the parent itself,
		// depth 0 in its own closure), each one level deeper to reach the
		// new node.
		if _, err := q.db.Exec(ctx, `
			INSERT INTO org_node_paths (tenant_id, ancestor_org_node_id, descendant_org_node_id, depth_val)
			SELECT tenant_id, ancestor_org_node_id, $3, depth_val + 1
			FROM org_node_paths
			WHERE tenant_id = $1 AND descendant_org_node_id = $2`,
			arg.TenantID, *arg.ParentID, arg.OrgNodeID); err != nil {
			return OrgNode{}, fmt.Errorf("inserting ancestor closure rows: %w", err)
		}
	}

	return n, nil
}

func (q *Queries) DeactivateOrgNode(ctx context.Context, tenantID, orgNodeID uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE org_nodes SET active_flag = FALSE
		WHERE tenant_id = $1 AND org_node_id = $2`, tenantID, orgNodeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows
	}
	return nil
}

func (q *Queries) GetOrgNode(ctx context.Context, tenantID, orgNodeID uuid.UUID) (OrgNode, error) {
	row := q.db.QueryRow(ctx, `
		SELECT org_node_id, tenant_id, type_code, label, parent_org_node_id, active_flag, created_at
		FROM org_nodes WHERE tenant_id = $1 AND org_node_id = $2`, tenantID, orgNodeID)

	var n OrgNode
	err := row.Scan(&n.OrgNodeID, &n.TenantID, &n.TypeCode, &n.Label, &n.ParentOrgNodeID, &n.ActiveFlag, &n.CreatedAt)
	return n, err
}

// ListSubtree returns every node at or below root (including root), ordered
// shallowest-first, via a single closure-table range scan.
func (q *Queries) ListSubtree(ctx context.Context, tenantID, root uuid.UUID) ([]OrgNode, error) {
	rows, err := q.db.Query(ctx, `
		SELECT n.org_node_id, n.tenant_id, n.type_code, n.label, n.parent_org_node_id, n.active_flag, n.created_at
		FROM org_node_paths p
		JOIN org_nodes n ON n.org_node_id = p.descendant_org_node_id AND n.tenant_id = p.tenant_id
		WHERE p.tenant_id = $1 AND p.ancestor_org_node_id = $2
		ORDER BY p.depth_val, n.label`, tenantID, root)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrgNode
	for rows.Next() {
		var n OrgNode
		if err := rows.Scan(&n.OrgNodeID, &n.TenantID, &n.TypeCode, &n.Label, &n.ParentOrgNodeID, &n.ActiveFlag, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ListAncestors returns every ancestor of node (including itself), deepest-last.
func (q *Queries) ListAncestors(ctx context.Context, tenantID, node uuid.UUID) ([]OrgNode, error) {
	rows, err := q.db.Query(ctx, `
		SELECT n.org_node_id, n.tenant_id, n.type_code, n.label, n.parent_org_node_id, n.active_flag, n.created_at
		FROM org_node_paths p
		JOIN org_nodes n ON n.org_node_id = p.ancestor_org_node_id AND n.tenant_id = p.tenant_id
		WHERE p.tenant_id = $1 AND p.descendant_org_node_id = $2
		ORDER BY p.depth_val DESC`, tenantID, node)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrgNode
	for rows.Next() {
		var n OrgNode
		if err := rows.Scan(&n.OrgNodeID, &n.TenantID, &n.TypeCode, &n.Label, &n.ParentOrgNodeID, &n.ActiveFlag, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// IsDescendant reports whether d is a or a descendant of a (closure lookup,
// depth >= 0 so a node counts as its own ancestor-or-equal).
func (q *Queries) IsDescendant(ctx context.Context, tenantID, a, d uuid.UUID) (bool, error) {
	var exists bool
	row := q.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM org_node_paths
			WHERE tenant_id = $1 AND ancestor_org_node_id = $2 AND descendant_org_node_id = $3
		)`, tenantID, a, d)
	err := row.Scan(&exists)
	return exists, err
}
