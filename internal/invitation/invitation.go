// Package invitation implements the pending→accepted|expired|revoked
// invitation lifecycle: a tenant admin invites an email to a role at an
// org-node, and accepting one mints the matching assignment.
package invitation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lumenforge/aac/internal/apperr"
	"github.com/lumenforge/aac/internal/assignment"
	"github.com/lumenforge/aac/internal/crypto"
	"github.com/lumenforge/aac/internal/storage/db"
)

const defaultTTL = 7 * 24 * time.Hour

type Service struct {
	q    *db.Queries
	asgn *assignment.Service
}

func NewService(q *db.Queries, asgn *assignment.Service) *Service {
	return &Service{q: q, asgn: asgn}
}

// CreateResult carries the invitation token in plaintext only at creation
// time; only its hash is ever persisted, so it cannot be recovered later.
type CreateResult struct {
	Invitation db.Invitation
	Token      string
}

// Create mints a random invitation token and a pending Invitation row. The
// caller (an HTTP handler) is responsible for emailing Token to the invitee.
func (s *Service) Create(ctx context.Context, tenantID, orgNodeID, roleID, createdByUserID uuid.UUID, email string, ttl time.Duration) (*CreateResult, error) {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	token, err := crypto.RandomSecret(24)
	if err != nil {
		return nil, apperr.Internal("generating invitation token", err)
	}

	inv, err := s.q.CreateInvitation(ctx, db.CreateInvitationParams{
		InvitationID:    uuid.New(),
		TenantID:        tenantID,
		Email:           email,
		OrgNodeID:       orgNodeID,
		RoleID:          roleID,
		TokenHash:       crypto.SHA256Hex([]byte(token)),
		ExpiresAt:       time.Now().Add(ttl),
		CreatedByUserID: createdByUserID,
	})
	if err != nil {
		return nil, apperr.Internal("creating invitation", err)
	}
	return &CreateResult{Invitation: inv, Token: token}, nil
}

// Accept transitions a pending invitation to accepted and assigns the
// invited user to (role, org-node) starting now. The caller has already
// resolved or created the user record the invitation's email belongs to —
// invitations don't themselves create users (that's identity.RegisterUser's
// job, or FindOrCreateSocial for a social sign-up).
func (s *Service) Accept(ctx context.Context, token string, userID uuid.UUID, now time.Time) (db.OrgAssignment, error) {
	inv, err := s.q.GetInvitationByTokenHash(ctx, crypto.SHA256Hex([]byte(token)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return db.OrgAssignment{}, apperr.NotFound("unknown invitation", err)
		}
		return db.OrgAssignment{}, apperr.Internal("fetching invitation", err)
	}

	if inv.State != "pending" {
		return db.OrgAssignment{}, apperr.Conflict("invitation is not pending", nil)
	}
	if now.After(inv.ExpiryAt.Time) {
		_ = s.q.TransitionInvitation(ctx, uuid.UUID(inv.InvitationID.Bytes), "pending", "expired", now)
		return db.OrgAssignment{}, apperr.Conflict("invitation has expired", nil)
	}

	if err := s.q.TransitionInvitation(ctx, uuid.UUID(inv.InvitationID.Bytes), "pending", "accepted", now); err != nil {
		return db.OrgAssignment{}, apperr.Internal("accepting invitation", err)
	}

	return s.asgn.Assign(ctx, uuid.UUID(inv.TenantID.Bytes), userID, uuid.UUID(inv.OrgNodeID.Bytes), uuid.UUID(inv.RoleID.Bytes), now)
}

// Revoke transitions a pending invitation to revoked. The update only matches
// a pending row, so an already-resolved invitation is left unchanged; Revoke
// still returns nil in that case and does not report it as an error.
func (s *Service) Revoke(ctx context.Context, invitationID uuid.UUID, now time.Time) error {
	if err := s.q.TransitionInvitation(ctx, invitationID, "pending", "revoked", now); err != nil {
		return apperr.Internal("revoking invitation", err)
	}
	return nil
}

// ExpirePending transitions a single invitation from pending to expired. It
// does not itself check whether the invitation's expiry has passed; Accept
// performs its own expiry transition without calling it.
func (s *Service) ExpirePending(ctx context.Context, invitationID uuid.UUID, now time.Time) error {
	return s.q.TransitionInvitation(ctx, invitationID, "pending", "expired", now)
}
