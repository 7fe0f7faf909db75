package tokens

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateTestKeyPEM(t *testing.T) (string, string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privPEM := string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	}))

	pubBytes, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pubPEM := string(pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubBytes,
	}))

	return privPEM, pubPEM
}

func newTestService(t *testing.T, bl Blacklist) *Service {
	t.Helper()
	priv, _ := generateTestKeyPEM(t)
	svc, err := NewService(priv, "sig-1", "", "", bl)
	require.NoError(t, err)
	return svc
}

func TestMintAccess_ValidatesAndCarriesClaims(t *testing.T) {
	svc := newTestService(t, NewMemoryBlacklist())
	userID, orgID, appID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	tok, err := svc.MintAccess(userID, "alice@acme.com", orgID, appID, now)
	require.NoError(t, err)

	claims, err := svc.Validate(context.Background(), tok, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "alice@acme.com", claims.Email)
	assert.Equal(t, orgID.String(), claims.OrgID)
}

func TestValidate_RejectsWrongKind(t *testing.T) {
	svc := newTestService(t, NewMemoryBlacklist())
	userID, sessionID := uuid.New(), uuid.New()
	now := time.Now()

	refresh, err := svc.MintRefresh(userID, sessionID, now)
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), refresh, KindAccess)
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestValidate_RejectsExpired(t *testing.T) {
	svc := newTestService(t, NewMemoryBlacklist())
	svc.accessTTL = -1 * time.Minute
	userID, orgID, appID := uuid.New(), uuid.New(), uuid.New()

	tok, err := svc.MintAccess(userID, "alice@acme.com", orgID, appID, time.Now())
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), tok, KindAccess)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidate_RespectsBlacklist(t *testing.T) {
	bl := NewMemoryBlacklist()
	svc := newTestService(t, bl)
	userID, orgID, appID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	tok, err := svc.MintAccess(userID, "alice@acme.com", orgID, appID, now)
	require.NoError(t, err)

	claims, err := svc.Validate(context.Background(), tok, KindAccess)
	require.NoError(t, err)

	require.NoError(t, svc.Blacklist(context.Background(), claims.ID, claims.ExpiresAt.Time, now))

	_, err = svc.Validate(context.Background(), tok, KindAccess)
	assert.ErrorIs(t, err, ErrBlacklisted)
}

func TestValidate_AcceptsPreviousKeyDuringRotationGrace(t *testing.T) {
	oldPriv, oldPub := generateTestKeyPEM(t)
	newPriv, _ := generateTestKeyPEM(t)

	oldSvc, err := NewService(oldPriv, "sig-1", "", "", NewMemoryBlacklist())
	require.NoError(t, err)
	userID, orgID, appID := uuid.New(), uuid.New(), uuid.New()
	tok, err := oldSvc.MintAccess(userID, "alice@acme.com", orgID, appID, time.Now())
	require.NoError(t, err)

	rotated, err := NewService(newPriv, "sig-2", oldPub, "sig-1", NewMemoryBlacklist())
	require.NoError(t, err)

	claims, err := rotated.Validate(context.Background(), tok, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)

	jwks := rotated.JWKS()
	assert.Len(t, jwks.Keys, 2)
}

func TestMintApp_CarriesClientScopeAndRateLimit(t *testing.T) {
	svc := newTestService(t, NewMemoryBlacklist())
	tok, err := svc.MintApp("client-123", "billing-service", 600, nil, time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := svc.Validate(context.Background(), tok, KindApp)
	require.NoError(t, err)
	assert.Equal(t, "client-123", claims.ClientID)
	assert.Equal(t, int32(600), claims.RateLimitPerMn)
}
