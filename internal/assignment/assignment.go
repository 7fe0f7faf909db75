// Package assignment manages the immutable, time-bounded (user, role,
// org-node) grants the authorization engine reads, plus visibility grants.
package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lumenforge/aac/internal/apperr"
	"github.com/lumenforge/aac/internal/storage/db"
)

type Service struct {
	q *db.Queries
}

func NewService(q *db.Queries) *Service {
	return &Service{q: q}
}

// Assign inserts a new immutable assignment row. start defaults to now.
func (s *Service) Assign(ctx context.Context, tenantID, userID, orgNodeID, roleID uuid.UUID, start time.Time) (db.OrgAssignment, error) {
	if start.IsZero() {
		start = time.Now()
	}
	a, err := s.q.Assign(ctx, db.AssignParams{
		AssignmentID: uuid.New(),
		TenantID:     tenantID,
		UserID:       userID,
		OrgNodeID:    orgNodeID,
		RoleID:       roleID,
		Start:        start,
	})
	if err != nil {
		return db.OrgAssignment{}, apperr.Internal("creating assignment", err)
	}
	return a, nil
}

// End transitions end_at from NULL to at, rejecting an end before the
// assignment's start or one already ended.
func (s *Service) End(ctx context.Context, assignmentID uuid.UUID, at time.Time) error {
	existing, err := s.q.GetAssignment(ctx, assignmentID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperr.NotFound("unknown assignment", err)
		}
		return apperr.Internal("fetching assignment", err)
	}
	if existing.EndAt.Valid {
		return apperr.Conflict("assignment already ended", nil)
	}
	if at.Before(existing.StartAt.Time) {
		return apperr.Validation("end time precedes assignment start", nil)
	}

	if err := s.q.EndAssignment(ctx, assignmentID, at); err != nil {
		return apperr.Internal("ending assignment", err)
	}
	return nil
}

// Replace ends every currently-active assignment matching (user, role,
// org_node) at `at`, then opens a fresh one starting at `at`. It never
// mutates a row's role or org-node in place — history is always an end
// followed by a new row.
func (s *Service) Replace(ctx context.Context, tenantID, userID, orgNodeID, roleID uuid.UUID, at time.Time) (db.OrgAssignment, error) {
	active, err := s.q.ListActiveAssignmentsMatching(ctx, tenantID, userID, roleID, orgNodeID, at)
	if err != nil {
		return db.OrgAssignment{}, apperr.Internal("listing matching assignments", err)
	}

	for _, a := range active {
		if err := s.q.EndAssignment(ctx, uuid.UUID(a.AssignmentID.Bytes), at); err != nil {
			return db.OrgAssignment{}, apperr.Internal("ending assignment during replace", err)
		}
	}

	return s.Assign(ctx, tenantID, userID, orgNodeID, roleID, at)
}

func (s *Service) ListActive(ctx context.Context, tenantID, userID uuid.UUID, at time.Time) ([]db.OrgAssignment, error) {
	out, err := s.q.ListActiveAssignments(ctx, tenantID, userID, at)
	if err != nil {
		return nil, apperr.Internal("listing active assignments", err)
	}
	return out, nil
}

// GrantVisibility is idempotent on (tenant, user, org_node): re-granting an
// existing grant returns the same row rather than erroring.
func (s *Service) GrantVisibility(ctx context.Context, tenantID, userID, orgNodeID uuid.UUID) (db.VisibilityGrant, error) {
	g, err := s.q.UpsertVisibilityGrant(ctx, uuid.New(), tenantID, userID, orgNodeID)
	if err != nil {
		return db.VisibilityGrant{}, apperr.Internal("granting visibility", err)
	}
	return g, nil
}

func (s *Service) RevokeVisibility(ctx context.Context, tenantID, userID, orgNodeID uuid.UUID) error {
	if err := s.q.DeleteVisibilityGrant(ctx, tenantID, userID, orgNodeID); err != nil {
		return apperr.Internal("revoking visibility", err)
	}
	return nil
}

func (s *Service) ListVisibility(ctx context.Context, tenantID, userID uuid.UUID) ([]db.VisibilityGrant, error) {
	out, err := s.q.ListVisibilityGrants(ctx, tenantID, userID)
	if err != nil {
		return nil, apperr.Internal("listing visibility grants", err)
	}
	return out, nil
}
