// Package session implements refresh-session lifecycle: opening a session,
// single-use refresh-token rotation with reuse detection, logout, and
// introspection.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lumenforge/aac/internal/apperr"
	"github.com/lumenforge/aac/internal/audit"
	"github.com/lumenforge/aac/internal/crypto"
	"github.com/lumenforge/aac/internal/storage/db"
	"github.com/lumenforge/aac/internal/telemetry"
	"github.com/lumenforge/aac/internal/tokens"
)

type Manager struct {
	q      *db.Queries
	tok    *tokens.Service
	audit  *audit.Recorder
	log    *slog.Logger
}

func NewManager(q *db.Queries, tok *tokens.Service, rec *audit.Recorder, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{q: q, tok: tok, audit: rec, log: log}
}

// Pair is the (refresh, access) tokens returned from opening or rotating a session.
type Pair struct {
	RefreshToken string
	AccessToken  string
	SessionID    uuid.UUID
}

// OpenSession mints a fresh refresh/access pair and persists the new
// session row keyed by a hash of the refresh token.
func (m *Manager) OpenSession(ctx context.Context, userID, tenantID, orgID, appID uuid.UUID, email string, refreshTTL time.Duration, now time.Time) (*Pair, error) {
	sessionID := uuid.New()

	refreshTok, err := m.tok.MintRefresh(userID, sessionID, now)
	if err != nil {
		return nil, apperr.Internal("minting refresh token", err)
	}

	if _, err := m.q.CreateSession(ctx, db.CreateSessionParams{
		SessionID: sessionID,
		UserID:    userID,
		TokenHash: crypto.SHA256Hex([]byte(refreshTok)),
		ExpiresAt: now.Add(refreshTTL),
	}); err != nil {
		return nil, apperr.Internal("creating session", err)
	}

	accessTok, err := m.tok.MintAccess(userID, email, orgID, appID, now)
	if err != nil {
		return nil, apperr.Internal("minting access token", err)
	}

	return &Pair{RefreshToken: refreshTok, AccessToken: accessTok, SessionID: sessionID}, nil
}

// Refresh performs single-use rotation. Presenting an already-rotated
// (revoked) refresh token triggers reuse detection: every session for the
// user created at or after the reused session's creation time is revoked,
// and an audit event is recorded.
func (m *Manager) Refresh(ctx context.Context, refreshToken string, userID, tenantID, orgID, appID uuid.UUID, email string, refreshTTL time.Duration, now time.Time) (*Pair, error) {
	claims, err := m.tok.Validate(ctx, refreshToken, tokens.KindRefresh)
	if err != nil {
		return nil, apperr.AuthN("invalid refresh token", err)
	}

	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, apperr.AuthN("malformed session claim", err)
	}

	sess, err := m.q.GetSession(ctx, sessionID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.AuthN("unknown session", err)
		}
		return nil, apperr.Internal("fetching session", err)
	}

	presentedHash := crypto.SHA256Hex([]byte(refreshToken))
	if !crypto.SecureCompare(presentedHash, sess.TokenHash) {
		return nil, apperr.AuthN("refresh token does not match session", nil)
	}

	if sess.RevokedAt.Valid {
		telemetry.RefreshReuseDetectedTotal.Inc()
		revoked, err := m.q.RevokeSessionsCreatedSince(ctx, userID, sess.CreatedAt.Time, now)
		if err != nil {
			m.log.Error("session: reuse-detection revoke failed", "err", err)
		}
		if m.audit != nil {
			m.audit.Record(ctx, audit.Event{
				TenantID:      &tenantID,
				ActorUserID:   &userID,
				EventTypeCode: "refresh_reuse_detected",
				Data:          map[string]any{"sessions_revoked": revoked, "session_id": sessionID.String()},
			})
		}
		return nil, apperr.AuthN("refresh token reuse detected, all sessions revoked", nil)
	}

	if now.After(sess.ExpiryAt.Time) {
		return nil, apperr.AuthN("refresh token expired", nil)
	}

	if err := m.q.RevokeSession(ctx, sessionID, now); err != nil {
		return nil, apperr.Internal("revoking rotated session", err)
	}

	return m.OpenSession(ctx, userID, tenantID, orgID, appID, email, refreshTTL, now)
}

// Logout revokes the session and blacklists the access token's jti so it
// cannot be used for the remainder of its natural life.
func (m *Manager) Logout(ctx context.Context, refreshToken string, accessJTI string, accessExpiry time.Time, now time.Time) error {
	claims, err := m.tok.Validate(ctx, refreshToken, tokens.KindRefresh)
	if err == nil {
		if sessionID, parseErr := uuid.Parse(claims.SessionID); parseErr == nil {
			if err := m.q.RevokeSession(ctx, sessionID, now); err != nil {
				return apperr.Internal("revoking session at logout", err)
			}
		}
	}

	if accessJTI != "" {
		if err := m.tok.Blacklist(ctx, accessJTI, accessExpiry, now); err != nil {
			return apperr.Internal("blacklisting access token at logout", err)
		}
	}
	return nil
}

// IntrospectResult mirrors the minimal shape callers need: active, subject, expiry.
type IntrospectResult struct {
	Active bool
	Sub    string
	Exp    time.Time
}

// Introspect respects the blacklist: a structurally valid but blacklisted
// token reports inactive rather than erroring.
func (m *Manager) Introspect(ctx context.Context, accessToken string) IntrospectResult {
	claims, err := m.tok.Validate(ctx, accessToken, tokens.KindAccess)
	if err != nil {
		return IntrospectResult{Active: false}
	}
	return IntrospectResult{Active: true, Sub: claims.UserID, Exp: claims.ExpiresAt.Time}
}

func (m *Manager) ListSessions(ctx context.Context, userID uuid.UUID) ([]db.RefreshSession, error) {
	out, err := m.q.ListSessions(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("listing sessions", err)
	}
	return out, nil
}
