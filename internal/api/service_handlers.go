package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lumenforge/aac/internal/api/helpers"
	"github.com/lumenforge/aac/internal/apperr"
)

type registerServiceRequest struct {
	AppName         string   `json:"app_name"`
	AppType         string   `json:"app_type"`
	RateLimitPerMin int32    `json:"rate_limit_per_min"`
	AllowedOrigins  []string `json:"allowed_origins"`
}

type registerServiceResponse struct {
	ClientID      string `json:"client_id"`
	ClientSecret  string `json:"client_secret"`
	SigningSecret string `json:"signing_secret"`
}

// RegisterService mints client credentials for a new service-to-service
// caller. The client and signing secrets are returned exactly once; only
// their hash/sealed form is ever persisted.
func (s *Server) RegisterService(w http.ResponseWriter, r *http.Request) {
	var req registerServiceRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.Services.RegisterService(r.Context(), req.AppName, req.AppType, req.RateLimitPerMin, req.AllowedOrigins)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusCreated, registerServiceResponse{
		ClientID:      result.Service.ClientID,
		ClientSecret:  result.ClientSecret,
		SigningSecret: result.SigningSecret,
	})
}

type rotateSecretRequest struct {
	GraceWindowSeconds int64 `json:"grace_window_seconds"`
}

type rotateSecretResponse struct {
	ClientSecret string `json:"client_secret"`
}

// RotateSecret issues a new client secret while the old one keeps working
// for GraceWindowSeconds, so callers can roll the new value out gradually.
func (s *Server) RotateSecret(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	var req rotateSecretRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	grace := time.Duration(req.GraceWindowSeconds) * time.Second
	if grace <= 0 {
		grace = 24 * time.Hour
	}

	secret, err := s.Services.RotateSecret(r.Context(), clientID, grace)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, rotateSecretResponse{ClientSecret: secret})
}

func (s *Server) RevokeService(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	if err := s.Services.RevokeService(r.Context(), clientID); err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}

type appTokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type appTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AppToken implements the client_credentials grant: a verified service
// exchanges its client secret for a short-lived, non-refreshable app token.
func (s *Server) AppToken(w http.ResponseWriter, r *http.Request) {
	var req appTokenRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClientID == "" || req.ClientSecret == "" {
		helpers.RespondAppErr(w, s.Logger, apperr.Validation("client_id and client_secret are required", nil))
		return
	}

	now := time.Now()
	tok, err := s.Services.IssueAppToken(r.Context(), req.ClientID, req.ClientSecret, s.AppTokenTTL, now)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, appTokenResponse{
		AccessToken: tok,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.AppTokenTTL.Seconds()),
	})
}
