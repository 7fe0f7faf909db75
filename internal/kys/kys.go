// Package kys implements the service registry and request-signing envelope
// verification used for service-to-service trust.
package kys

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lumenforge/aac/internal/apperr"
	"github.com/lumenforge/aac/internal/crypto"
	"github.com/lumenforge/aac/internal/storage/db"
	"github.com/lumenforge/aac/internal/tokens"
)

const (
	clockSkew       = 60 * time.Second
	nonceWindowSlop = 60 * time.Second
)

// NonceCache enforces the sliding-window replay defense: a nonce must be
// unseen within skew+60s of first use. Backed by Redis in production so the
// window is shared across every instance verifying requests.
type NonceCache interface {
	// Reserve records nonce for ttl and reports whether it was already
	// present (a replay) via the second return value.
	Reserve(ctx context.Context, nonce string, ttl time.Duration) (alreadySeen bool, err error)
}

// Registry manages Service rows and verifies signed request envelopes.
type Registry struct {
	q      *db.Queries
	sealer *crypto.Sealer
	nonces NonceCache
	tok    *tokens.Service
}

func NewRegistry(q *db.Queries, sealer *crypto.Sealer, nonces NonceCache, tok *tokens.Service) *Registry {
	return &Registry{q: q, sealer: sealer, nonces: nonces, tok: tok}
}

type RegisterServiceResult struct {
	Service      db.Service
	ClientSecret string
	SigningSecret string
}

// RegisterService mints a random client secret (returned once, stored only
// hashed) and a random signing secret (stored sealed, never plaintext).
func (r *Registry) RegisterService(ctx context.Context, appName, appType string, rateLimitPerMin int32, allowedOrigins []string) (*RegisterServiceResult, error) {
	clientSecret, err := crypto.RandomSecret(32)
	if err != nil {
		return nil, apperr.Internal("generating client secret", err)
	}
	signingSecret, err := crypto.RandomSecret(32)
	if err != nil {
		return nil, apperr.Internal("generating signing secret", err)
	}

	sealedSigning, err := r.sealer.Seal(signingSecret)
	if err != nil {
		return nil, apperr.Internal("sealing signing secret", err)
	}

	svc, err := r.q.CreateService(ctx, db.CreateServiceParams{
		ServiceID:           uuid.New(),
		ClientID:            uuid.NewString(),
		ClientSecretHash:    crypto.SHA256Hex([]byte(clientSecret)),
		SigningSecretSealed: sealedSigning,
		AppName:             appName,
		AppType:             appType,
		RateLimitPerMin:     rateLimitPerMin,
		AllowedOrigins:      allowedOrigins,
	})
	if err != nil {
		return nil, apperr.Internal("creating service", err)
	}

	return &RegisterServiceResult{Service: svc, ClientSecret: clientSecret, SigningSecret: signingSecret}, nil
}

func (r *Registry) RotateSecret(ctx context.Context, clientID string, graceWindow time.Duration) (string, error) {
	newSecret, err := crypto.RandomSecret(32)
	if err != nil {
		return "", apperr.Internal("generating rotated secret", err)
	}
	if err := r.q.RotateSecret(ctx, clientID, crypto.SHA256Hex([]byte(newSecret)), time.Now().Add(graceWindow)); err != nil {
		return "", apperr.Internal("rotating service secret", err)
	}
	return newSecret, nil
}

func (r *Registry) RevokeService(ctx context.Context, clientID string) error {
	if err := r.q.RevokeService(ctx, clientID); err != nil {
		return apperr.Internal("revoking service", err)
	}
	return nil
}

// Envelope is the parsed set of signing headers for one request.
type Envelope struct {
	ClientID  string
	Method    string
	Path      string
	Timestamp int64
	Nonce     string
	BodySHA256Hex string
	SignatureHex  string
}

var ErrSignatureMismatch = errors.New("kys: signature mismatch")

// CanonicalString builds the exact string the signature covers.
func CanonicalString(method, path string, timestamp int64, nonce, bodySHA256Hex string) string {
	return fmt.Sprintf("%s|%s|%d|%s|%s", method, path, timestamp, nonce, bodySHA256Hex)
}

// VerifyEnvelope implements §4.9's verification steps in order: client
// lookup, enabled check, clock skew, nonce replay, signature recomputation
// under the service's single sealed signing secret (there is no previous
// signing key to fall back to).
func (r *Registry) VerifyEnvelope(ctx context.Context, env Envelope, now time.Time) (db.Service, error) {
	svc, err := r.q.GetServiceByClientID(ctx, env.ClientID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return db.Service{}, apperr.AuthN("unknown client", err)
		}
		return db.Service{}, apperr.Internal("fetching service", err)
	}

	if err := r.verifyAgainstService(ctx, svc, env, now); err != nil {
		return db.Service{}, err
	}
	return svc, nil
}

// verifyAgainstService runs every check against an already-fetched Service
// row, split out from the GetServiceByClientID lookup so it can be exercised
// without a database.
func (r *Registry) verifyAgainstService(ctx context.Context, svc db.Service, env Envelope, now time.Time) error {
	if !svc.EnabledFlag {
		return apperr.AuthN("client disabled", nil)
	}

	if !withinSkew(now, time.Unix(env.Timestamp, 0), clockSkew) {
		return apperr.AuthN("timestamp outside allowed skew", nil)
	}

	seen, err := r.nonces.Reserve(ctx, env.ClientID+":"+env.Nonce, clockSkew+nonceWindowSlop)
	if err != nil {
		return apperr.Internal("checking nonce cache", err)
	}
	if seen {
		return apperr.AuthN("nonce already used", nil)
	}

	canonical := CanonicalString(env.Method, env.Path, env.Timestamp, env.Nonce, env.BodySHA256Hex)

	signingSecret, err := r.sealer.Open(svc.SigningSecretSealed)
	if err != nil {
		return apperr.Internal("opening signing secret", err)
	}
	if crypto.SecureCompare(env.SignatureHex, crypto.HMACSHA256([]byte(signingSecret), []byte(canonical))) {
		return nil
	}

	return apperr.AuthN("signature verification failed", ErrSignatureMismatch)
}

// withinSkew reports whether requestTime is within allowed of now, in either
// direction (a signed request can arrive slightly early or late).
func withinSkew(now, requestTime time.Time, allowed time.Duration) bool {
	skew := now.Sub(requestTime)
	if skew < 0 {
		skew = -skew
	}
	return skew <= allowed
}

// VerifyClientCredentials checks a client_credentials grant's secret against
// the current hash, then the previous one if still within its grace window.
func (r *Registry) VerifyClientCredentials(ctx context.Context, clientID, clientSecret string) (db.Service, error) {
	svc, err := r.q.GetServiceByClientID(ctx, clientID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return db.Service{}, apperr.AuthN("unknown client", err)
		}
		return db.Service{}, apperr.Internal("fetching service", err)
	}
	if !svc.EnabledFlag {
		return db.Service{}, apperr.AuthN("client disabled", nil)
	}

	if matchesSecret(svc, clientSecret, time.Now()) {
		return svc, nil
	}
	return db.Service{}, apperr.AuthN("invalid client secret", nil)
}

// matchesSecret checks clientSecret against the current hash, falling back
// to the previous one while its grace window hasn't expired.
func matchesSecret(svc db.Service, clientSecret string, now time.Time) bool {
	candidate := crypto.SHA256Hex([]byte(clientSecret))
	if crypto.SecureCompare(candidate, svc.ClientSecretHash) {
		return true
	}
	if svc.PreviousClientSecretHash.Valid && svc.PreviousSecretExpiry.Valid && now.Before(svc.PreviousSecretExpiry.Time) {
		return crypto.SecureCompare(candidate, svc.PreviousClientSecretHash.String)
	}
	return false
}

// IssueAppToken implements POST /auth/app/token: scopes are empty for the
// plain client_credentials flow, attached at service-account level instead.
func (r *Registry) IssueAppToken(ctx context.Context, clientID, clientSecret string, ttl time.Duration, now time.Time) (string, error) {
	svc, err := r.VerifyClientCredentials(ctx, clientID, clientSecret)
	if err != nil {
		return "", err
	}
	tok, err := r.tok.MintApp(svc.ClientID, svc.AppName, svc.RateLimitPerMin, nil, ttl, now)
	if err != nil {
		return "", apperr.Internal("minting app token", err)
	}
	return tok, nil
}
