package kys

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/aac/internal/crypto"
	"github.com/lumenforge/aac/internal/storage/db"
)

func TestCanonicalString_Shape(t *testing.T) {
	got := CanonicalString("POST", "/orgs/123/assign", 1700000000, "abc", "deadbeef")
	assert.Equal(t, "POST|/orgs/123/assign|1700000000|abc|deadbeef", got)
}

func TestWithinSkew(t *testing.T) {
	now := time.Unix(1700000000, 0)
	assert.True(t, withinSkew(now, now.Add(59*time.Second), clockSkew))
	assert.True(t, withinSkew(now, now.Add(-59*time.Second), clockSkew))
	assert.False(t, withinSkew(now, now.Add(61*time.Second), clockSkew))
}

func testSealer(t *testing.T) *crypto.Sealer {
	t.Helper()
	key, err := crypto.GenerateSealingKey()
	require.NoError(t, err)
	sealer, err := crypto.NewSealer(key, "")
	require.NoError(t, err)
	return sealer
}

func TestRegistry_VerifyAgainstService_AcceptsValidSignature(t *testing.T) {
	sealer := testSealer(t)
	signingSecret := "super-secret-signing-key"
	sealed, err := sealer.Seal(signingSecret)
	require.NoError(t, err)

	svc := db.Service{ClientID: "client-1", SigningSecretSealed: sealed, EnabledFlag: true}
	r := &Registry{sealer: sealer, nonces: NewMemoryNonceCache()}

	now := time.Unix(1700000000, 0)
	env := Envelope{
		ClientID:      "client-1",
		Method:        "POST",
		Path:          "/orgs",
		Timestamp:     now.Unix(),
		Nonce:         "n-1",
		BodySHA256Hex: crypto.SHA256Hex([]byte(`{}`)),
	}
	env.SignatureHex = crypto.HMACSHA256([]byte(signingSecret), []byte(CanonicalString(env.Method, env.Path, env.Timestamp, env.Nonce, env.BodySHA256Hex)))

	err = r.verifyAgainstService(context.Background(), svc, env, now)
	assert.NoError(t, err)
}

func TestRegistry_VerifyAgainstService_RejectsReplayedNonce(t *testing.T) {
	sealer := testSealer(t)
	signingSecret := "super-secret-signing-key"
	sealed, _ := sealer.Seal(signingSecret)
	svc := db.Service{ClientID: "client-1", SigningSecretSealed: sealed, EnabledFlag: true}
	r := &Registry{sealer: sealer, nonces: NewMemoryNonceCache()}

	now := time.Unix(1700000000, 0)
	env := Envelope{ClientID: "client-1", Method: "GET", Path: "/orgs", Timestamp: now.Unix(), Nonce: "n-reuse", BodySHA256Hex: crypto.SHA256Hex(nil)}
	env.SignatureHex = crypto.HMACSHA256([]byte(signingSecret), []byte(CanonicalString(env.Method, env.Path, env.Timestamp, env.Nonce, env.BodySHA256Hex)))

	require.NoError(t, r.verifyAgainstService(context.Background(), svc, env, now))

	err := r.verifyAgainstService(context.Background(), svc, env, now)
	assert.Error(t, err)
}

func TestRegistry_VerifyAgainstService_RejectsDisabledClient(t *testing.T) {
	sealer := testSealer(t)
	sealed, _ := sealer.Seal("secret")
	svc := db.Service{ClientID: "client-1", SigningSecretSealed: sealed, EnabledFlag: false}
	r := &Registry{sealer: sealer, nonces: NewMemoryNonceCache()}

	now := time.Unix(1700000000, 0)
	env := Envelope{ClientID: "client-1", Timestamp: now.Unix()}
	err := r.verifyAgainstService(context.Background(), svc, env, now)
	assert.Error(t, err)
}

func TestRegistry_VerifyAgainstService_RejectsBadSignature(t *testing.T) {
	sealer := testSealer(t)
	sealed, _ := sealer.Seal("secret")
	svc := db.Service{ClientID: "client-1", SigningSecretSealed: sealed, EnabledFlag: true}
	r := &Registry{sealer: sealer, nonces: NewMemoryNonceCache()}

	now := time.Unix(1700000000, 0)
	env := Envelope{ClientID: "client-1", Method: "GET", Path: "/orgs", Timestamp: now.Unix(), Nonce: "n", BodySHA256Hex: crypto.SHA256Hex(nil), SignatureHex: "wrong"}
	err := r.verifyAgainstService(context.Background(), svc, env, now)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestMatchesSecret_FallsBackToPreviousWithinGrace(t *testing.T) {
	now := time.Unix(1700000000, 0)
	svc := db.Service{
		ClientSecretHash:         crypto.SHA256Hex([]byte("current")),
		PreviousClientSecretHash: pgtype.Text{String: crypto.SHA256Hex([]byte("old")), Valid: true},
		PreviousSecretExpiry:     pgtype.Timestamptz{Time: now.Add(time.Hour), Valid: true},
	}

	assert.True(t, matchesSecret(svc, "current", now))
	assert.True(t, matchesSecret(svc, "old", now))
	assert.False(t, matchesSecret(svc, "old", now.Add(2*time.Hour)))
	assert.False(t, matchesSecret(svc, "nope", now))
}
