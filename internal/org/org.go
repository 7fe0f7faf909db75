// Package org manages tenants and the org-node hierarchy backing
// authorization scope checks.
package org

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenforge/aac/internal/apperr"
	"github.com/lumenforge/aac/internal/storage"
	"github.com/lumenforge/aac/internal/storage/db"
)

type Service struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

// NewService takes both the shared Queries (for plain reads) and the pool
// itself, since CreateOrgNode needs to open its own transaction to keep the
// node insert and closure-table propagation atomic.
func NewService(q *db.Queries, pool *pgxpool.Pool) *Service {
	return &Service{q: q, pool: pool}
}

func (s *Service) CreateTenant(ctx context.Context, slug, label string) (db.Tenant, error) {
	t, err := s.q.CreateTenant(ctx, db.CreateTenantParams{
		TenantID: uuid.New(),
		Slug:     slug,
		Label:    label,
	})
	if err != nil {
		return db.Tenant{}, apperr.Internal("creating tenant", err)
	}
	return t, nil
}

func (s *Service) SuspendTenant(ctx context.Context, tenantID uuid.UUID) error {
	if err := s.q.SuspendTenant(ctx, tenantID); err != nil {
		return apperr.Internal("suspending tenant", err)
	}
	return nil
}

func (s *Service) TenantBySlug(ctx context.Context, slug string) (db.Tenant, error) {
	t, err := s.q.GetTenantBySlug(ctx, slug)
	if err != nil {
		if isNoRows(err) {
			return db.Tenant{}, apperr.NotFound("unknown tenant", err)
		}
		return db.Tenant{}, apperr.Internal("fetching tenant", err)
	}
	return t, nil
}

// CreateOrgNode inserts a node and, when parentID is non-nil, requires the
// parent to exist within the same tenant: the closure table's ancestor
// propagation depends on the parent already having a self row. The parent
// check, the node insert, and the closure-table writes (self row plus one
// row per ancestor of the parent) all run inside one transaction, per
// spec.md §4.3/§6 — a failure partway through must never leave a node with
// an incomplete closure, since every descendant `Decide` would silently DENY
// against it.
func (s *Service) CreateOrgNode(ctx context.Context, tenantID uuid.UUID, typeCode, label string, parentID *uuid.UUID) (db.OrgNode, error) {
	var n db.OrgNode
	err := storage.WithTx(ctx, s.pool, func(q *db.Queries) error {
		if parentID != nil {
			if _, err := q.GetOrgNode(ctx, tenantID, *parentID); err != nil {
				if isNoRows(err) {
					return apperr.Validation("parent org node does not exist in this tenant", err)
				}
				return apperr.Internal("fetching parent org node", err)
			}
		}

		created, err := q.CreateOrgNode(ctx, db.CreateOrgNodeParams{
			OrgNodeID: uuid.New(),
			TenantID:  tenantID,
			TypeCode:  typeCode,
			Label:     label,
			ParentID:  parentID,
		})
		if err != nil {
			return apperr.Internal("creating org node", err)
		}
		n = created
		return nil
	})
	if err != nil {
		return db.OrgNode{}, err
	}
	return n, nil
}

func (s *Service) DeactivateOrgNode(ctx context.Context, tenantID, nodeID uuid.UUID) error {
	if err := s.q.DeactivateOrgNode(ctx, tenantID, nodeID); err != nil {
		if isNoRows(err) {
			return apperr.NotFound("unknown org node", err)
		}
		return apperr.Internal("deactivating org node", err)
	}
	return nil
}

func (s *Service) ListSubtree(ctx context.Context, tenantID, root uuid.UUID) ([]db.OrgNode, error) {
	nodes, err := s.q.ListSubtree(ctx, tenantID, root)
	if err != nil {
		return nil, apperr.Internal("listing subtree", err)
	}
	return nodes, nil
}

func (s *Service) ListAncestors(ctx context.Context, tenantID, node uuid.UUID) ([]db.OrgNode, error) {
	nodes, err := s.q.ListAncestors(ctx, tenantID, node)
	if err != nil {
		return nil, apperr.Internal("listing ancestors", err)
	}
	return nodes, nil
}

func (s *Service) IsDescendant(ctx context.Context, tenantID, ancestor, descendant uuid.UUID) (bool, error) {
	ok, err := s.q.IsDescendant(ctx, tenantID, ancestor, descendant)
	if err != nil {
		return false, apperr.Internal("checking descendant relation", err)
	}
	return ok, nil
}
