// Package tokens mints and validates the three signed envelope kinds the
// service issues: access, refresh, and app (service-to-service).
package tokens

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lumenforge/aac/internal/telemetry"
)

var (
	ErrInvalidToken = errors.New("tokens: invalid token")
	ErrExpiredToken = errors.New("tokens: token has expired")
	ErrWrongKind    = errors.New("tokens: token kind mismatch")
	ErrBlacklisted  = errors.New("tokens: token has been revoked")
)

// Kind discriminates the three envelope shapes. Validate refuses to accept a
// token minted for one kind when asked to validate another, so a refresh
// token can never be replayed as an access token.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	KindApp     Kind = "app"
)

// Claims is the superset of fields across all three kinds. Only the fields
// relevant to Kind are populated on mint; unused fields are left zero.
type Claims struct {
	Kind           Kind     `json:"knd"`
	UserID         string   `json:"sub,omitempty"`
	Email          string   `json:"email,omitempty"`
	AppID          string   `json:"app_id,omitempty"`
	OrgID          string   `json:"org_id,omitempty"`
	SessionID      string   `json:"sid,omitempty"`
	ClientID       string   `json:"client_id,omitempty"`
	AppName        string   `json:"app_name,omitempty"`
	Scopes         []string `json:"scopes,omitempty"`
	RateLimitPerMn int32    `json:"rate_limit_per_min,omitempty"`
	jwt.RegisteredClaims
}

// Blacklist records revoked jti/client_id values until their natural expiry.
// Backed by Redis in production; fakeable in tests.
type Blacklist interface {
	Add(ctx context.Context, id string, ttl time.Duration) error
	Contains(ctx context.Context, id string) (bool, error)
}

// JWK is one entry of a published JSON Web Key Set.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
	Alg string `json:"alg"`
}

type JWKS struct {
	Keys []JWK `json:"keys"`
}

// key pairs a kid with the public half needed to verify tokens minted under it.
type key struct {
	kid string
	pub *rsa.PublicKey
}

// Service mints and validates RS256 envelopes. A previous key may be set
// during a rotation's grace window: Validate tries the current key first,
// then falls back to the previous one so in-flight tokens minted under the
// old key still verify.
type Service struct {
	signingKey *rsa.PrivateKey
	current    key
	previous   *key

	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string

	blacklist Blacklist
}

type Option func(*Service)

func WithAccessTTL(d time.Duration) Option  { return func(s *Service) { s.accessTTL = d } }
func WithRefreshTTL(d time.Duration) Option { return func(s *Service) { s.refreshTTL = d } }
func WithIssuer(iss string) Option          { return func(s *Service) { s.issuer = iss } }

// NewService parses the current signing key (PEM, PKCS1 or PKCS8) and,
// optionally, a previous public key PEM still in its rotation grace window.
func NewService(privatePEM, kid string, previousPublicPEM, previousKid string, blacklist Blacklist, opts ...Option) (*Service, error) {
	priv, err := parsePrivateKey(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("tokens: parsing signing key: %w", err)
	}

	s := &Service{
		signingKey: priv,
		current:    key{kid: kid, pub: &priv.PublicKey},
		accessTTL:  15 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
		issuer:     "aac",
		blacklist:  blacklist,
	}

	if previousPublicPEM != "" {
		pub, err := parsePublicKey(previousPublicPEM)
		if err != nil {
			return nil, fmt.Errorf("tokens: parsing previous public key: %w", err)
		}
		s.previous = &key{kid: previousKid, pub: pub}
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func parsePrivateKey(pemStr string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if priv, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return priv, nil
	}
	k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	priv, ok := k.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("key is not an RSA private key")
	}
	return priv, nil
}

func parsePublicKey(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if pub, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return pub, nil
	}
	k, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := k.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("key is not an RSA public key")
	}
	return pub, nil
}

func (s *Service) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.current.kid
	signed, err := token.SignedString(s.signingKey)
	if err == nil {
		telemetry.TokensIssuedTotal.WithLabelValues(string(claims.Kind)).Inc()
	}
	return signed, err
}

// MintAccess never embeds a capability set; authorization is always a live
// query against the decision engine (C7), not something baked into the token.
func (s *Service) MintAccess(userID uuid.UUID, email string, orgID, appID uuid.UUID, now time.Time) (string, error) {
	claims := Claims{
		Kind:   KindAccess,
		UserID: userID.String(),
		Email:  email,
		AppID:  appID.String(),
		OrgID:  orgID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	return s.sign(claims)
}

func (s *Service) MintRefresh(userID, sessionID uuid.UUID, now time.Time) (string, error) {
	claims := Claims{
		Kind:      KindRefresh,
		UserID:    userID.String(),
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	}
	return s.sign(claims)
}

// MintApp issues a service-to-service token. Scopes are attached at the
// service-account level and are empty for the plain client_credentials flow.
func (s *Service) MintApp(clientID, appName string, rateLimitPerMin int32, scopes []string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Kind:           KindApp,
		ClientID:       clientID,
		AppName:        appName,
		Scopes:         scopes,
		RateLimitPerMn: rateLimitPerMin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return s.sign(claims)
}

// Validate checks signature, kind, expiry and, for access/app tokens, the
// blacklist. Refresh tokens are checked against RefreshSession state by the
// session manager (C8), not the blacklist, so they are not looked up here.
func (s *Service) Validate(ctx context.Context, tokenString string, want Kind) (*Claims, error) {
	pub := s.current.pub
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return pub, nil
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, keyFunc)
	if err != nil && s.previous != nil && errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		pub = s.previous.pub
		token, err = jwt.ParseWithClaims(tokenString, &Claims{}, keyFunc)
	}
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != want {
		return nil, ErrWrongKind
	}

	if s.blacklist != nil && (want == KindAccess || want == KindApp) {
		id := claims.ID
		if want == KindApp {
			id = claims.ClientID
		}
		blocked, err := s.blacklist.Contains(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("tokens: blacklist lookup: %w", err)
		}
		if blocked {
			return nil, ErrBlacklisted
		}
	}

	return claims, nil
}

// Blacklist revokes jti (or client_id for app tokens) until the token's
// natural expiry, rounding up to the nearest second per the TTL-granularity
// open question.
func (s *Service) Blacklist(ctx context.Context, id string, expiresAt time.Time, now time.Time) error {
	if s.blacklist == nil {
		return nil
	}
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return nil
	}
	// Round up, never down: truncating the token's remaining life short would
	// let a blacklisted token validate again before its natural expiry.
	ttl = ((ttl + time.Second - 1) / time.Second) * time.Second
	return s.blacklist.Add(ctx, id, ttl)
}

// JWKS publishes every currently trusted public key: the active signing key
// plus, during a rotation's grace window, the previous one.
func (s *Service) JWKS() *JWKS {
	keys := []JWK{jwkFrom(s.current)}
	if s.previous != nil {
		keys = append(keys, jwkFrom(*s.previous))
	}
	return &JWKS{Keys: keys}
}

func jwkFrom(k key) JWK {
	eBuf := big.NewInt(int64(k.pub.E)).Bytes()
	return JWK{
		Kty: "RSA",
		Kid: k.kid,
		Use: "sig",
		N:   base64.RawURLEncoding.EncodeToString(k.pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(eBuf),
		Alg: "RS256",
	}
}
