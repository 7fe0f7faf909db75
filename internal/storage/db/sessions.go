package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CreateSessionParams struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (RefreshSession, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO refresh_sessions (session_id, user_id, token_hash, expiry_at)
		VALUES ($1, $2, $3, $4)
		RETURNING session_id, user_id, token_hash, expiry_at, revoked_at, created_at`,
		arg.SessionID, arg.UserID, arg.TokenHash, arg.ExpiresAt)

	var s RefreshSession
	err := row.Scan(&s.SessionID, &s.UserID, &s.TokenHash, &s.ExpiryAt, &s.RevokedAt, &s.CreatedAt)
	return s, err
}

func (q *Queries) GetSession(ctx context.Context, sessionID uuid.UUID) (RefreshSession, error) {
	row := q.db.QueryRow(ctx, `
		SELECT session_id, user_id, token_hash, expiry_at, revoked_at, created_at
		FROM refresh_sessions WHERE session_id = $1`, sessionID)

	var s RefreshSession
	err := row.Scan(&s.SessionID, &s.UserID, &s.TokenHash, &s.ExpiryAt, &s.RevokedAt, &s.CreatedAt)
	return s, err
}

func (q *Queries) RevokeSession(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	_, err := q.db.Exec(ctx, `
		UPDATE refresh_sessions SET revoked_at = $2
		WHERE session_id = $1 AND revoked_at IS NULL`, sessionID, at)
	return err
}

// RevokeSessionsCreatedSince implements the "nuclear option" for reuse
// detection: revoke every session for the user created at or after since.
func (q *Queries) RevokeSessionsCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time, at time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE refresh_sessions SET revoked_at = $3
		WHERE user_id = $1 AND created_at >= $2 AND revoked_at IS NULL`, userID, since, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListSessions(ctx context.Context, userID uuid.UUID) ([]RefreshSession, error) {
	rows, err := q.db.Query(ctx, `
		SELECT session_id, user_id, token_hash, expiry_at, revoked_at, created_at
		FROM refresh_sessions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RefreshSession
	for rows.Next() {
		var s RefreshSession
		if err := rows.Scan(&s.SessionID, &s.UserID, &s.TokenHash, &s.ExpiryAt, &s.RevokedAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
