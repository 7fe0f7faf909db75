package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CreateInvitationParams struct {
	InvitationID    uuid.UUID
	TenantID        uuid.UUID
	Email           string
	OrgNodeID       uuid.UUID
	RoleID          uuid.UUID
	TokenHash       string
	ExpiresAt       time.Time
	CreatedByUserID uuid.UUID
}

func (q *Queries) CreateInvitation(ctx context.Context, arg CreateInvitationParams) (Invitation, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO invitations (invitation_id, tenant_id, email, org_node_id, role_id, token_hash, state, expiry_at, created_by_user_id)
		VALUES ($1, $2, lower($3), $4, $5, $6, 'pending', $7, $8)
		RETURNING invitation_id, tenant_id, email, org_node_id, role_id, token_hash, state, expiry_at, accepted_at, created_by_user_id, created_at`,
		arg.InvitationID, arg.TenantID, arg.Email, arg.OrgNodeID, arg.RoleID, arg.TokenHash, arg.ExpiresAt, arg.CreatedByUserID)

	var i Invitation
	err := row.Scan(&i.InvitationID, &i.TenantID, &i.Email, &i.OrgNodeID, &i.RoleID, &i.TokenHash, &i.State,
		&i.ExpiryAt, &i.AcceptedAt, &i.CreatedByUserID, &i.CreatedAt)
	return i, err
}

func (q *Queries) GetInvitationByTokenHash(ctx context.Context, tokenHash string) (Invitation, error) {
	row := q.db.QueryRow(ctx, `
		SELECT invitation_id, tenant_id, email, org_node_id, role_id, token_hash, state, expiry_at, accepted_at, created_by_user_id, created_at
		FROM invitations WHERE token_hash = $1`, tokenHash)

	var i Invitation
	err := row.Scan(&i.InvitationID, &i.TenantID, &i.Email, &i.OrgNodeID, &i.RoleID, &i.TokenHash, &i.State,
		&i.ExpiryAt, &i.AcceptedAt, &i.CreatedByUserID, &i.CreatedAt)
	return i, err
}

func (q *Queries) TransitionInvitation(ctx context.Context, invitationID uuid.UUID, fromState, toState string, at time.Time) error {
	var err error
	if toState == "accepted" {
		_, err = q.db.Exec(ctx, `
			UPDATE invitations SET state = $3, accepted_at = $4
			WHERE invitation_id = $1 AND state = $2`, invitationID, fromState, toState, at)
	} else {
		_, err = q.db.Exec(ctx, `
			UPDATE invitations SET state = $3
			WHERE invitation_id = $1 AND state = $2`, invitationID, fromState, toState)
	}
	return err
}
