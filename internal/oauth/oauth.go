// Package oauth implements the Google OAuth2/PKCE social login flow: an
// authorization-code exchange that lands as a "google" UserIdentity row.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/lumenforge/aac/internal/apperr"
	"github.com/lumenforge/aac/internal/identity"
)

const stateTTL = 10 * time.Minute

// StateStore persists the PKCE verifier under its state token between the
// login redirect and the callback, ensuring callbacks are bound to a login
// this service actually initiated.
type StateStore interface {
	Put(ctx context.Context, state, verifier string, ttl time.Duration) error
	// PopVerifier atomically fetches and deletes the verifier for state, so
	// a state value cannot be replayed against a second callback.
	PopVerifier(ctx context.Context, state string) (verifier string, ok bool, err error)
}

type Service struct {
	cfg    *oauth2.Config
	states StateStore
	ids    *identity.Service
}

func NewService(clientID, clientSecret, redirectURL string, states StateStore, ids *identity.Service) *Service {
	return &Service{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		states: states,
		ids:    ids,
	}
}

// LoginURL generates a fresh state/PKCE-verifier pair, stores the verifier
// under the state, and returns the URL the caller should redirect to.
func (s *Service) LoginURL(ctx context.Context) (string, error) {
	state, err := randomToken()
	if err != nil {
		return "", apperr.Internal("generating oauth state", err)
	}
	verifier := oauth2.GenerateVerifier()

	if err := s.states.Put(ctx, state, verifier, stateTTL); err != nil {
		return "", apperr.Internal("storing oauth state", err)
	}

	url := s.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	return url, nil
}

type GoogleUser struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// Callback exchanges code for a token using the verifier stashed under
// state, then fetches the caller's Google profile.
func (s *Service) Callback(ctx context.Context, state, code string) (*GoogleUser, error) {
	verifier, ok, err := s.states.PopVerifier(ctx, state)
	if err != nil {
		return nil, apperr.Internal("resolving oauth state", err)
	}
	if !ok {
		return nil, apperr.AuthN("unknown or expired oauth state", nil)
	}

	token, err := s.cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, apperr.AuthN("exchanging authorization code", err)
	}

	return s.fetchProfile(ctx, token)
}

func (s *Service) fetchProfile(ctx context.Context, token *oauth2.Token) (*GoogleUser, error) {
	client := s.cfg.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.googleapis.com/oauth2/v3/userinfo", nil)
	if err != nil {
		return nil, apperr.Internal("building userinfo request", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperr.AuthN("fetching google profile", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.AuthN("google profile request failed", nil)
	}

	var u GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, apperr.Internal("decoding google profile", err)
	}
	if u.Subject == "" || u.Email == "" {
		return nil, apperr.AuthN("google profile missing subject or email", nil)
	}
	if !u.EmailVerified {
		return nil, apperr.AuthN("google email not verified", nil)
	}
	return &u, nil
}

// ResolveUser lands a verified Google profile as an identity row, creating
// the user on first sign-in for this tenant.
func (s *Service) ResolveUser(ctx context.Context, tenantID uuid.UUID, gu *GoogleUser) (uuid.UUID, error) {
	user, err := s.ids.FindOrCreateSocial(ctx, tenantID, identity.ProviderGoogle, gu.Subject, gu.Email, gu.Name)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.UUID(user.UserID.Bytes), nil
}

func randomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
