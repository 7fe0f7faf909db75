package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lumenforge/aac/internal/api/helpers"
	"github.com/lumenforge/aac/internal/apperr"
)

type googleLoginResponse struct {
	URL string `json:"url"`
}

func (s *Server) GoogleLoginURL(w http.ResponseWriter, r *http.Request) {
	url, err := s.OAuth.LoginURL(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, googleLoginResponse{URL: url})
}

type googleCallbackRequest struct {
	TenantSlug string `json:"tenant_slug"`
	State      string `json:"state"`
	Code       string `json:"code"`
}

// GoogleCallback exchanges the authorization code, resolves or creates the
// matching local user, and opens a session exactly as a password login
// would.
func (s *Server) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	var req googleCallbackRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tenant, err := s.Org.TenantBySlug(r.Context(), req.TenantSlug)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Validation("unknown tenant", err))
		return
	}
	tenantID := uuid.UUID(tenant.TenantID.Bytes)

	gu, err := s.OAuth.Callback(r.Context(), req.State, req.Code)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}

	userID, err := s.OAuth.ResolveUser(r.Context(), tenantID, gu)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}

	pair, err := s.Sessions.OpenSession(r.Context(), userID, tenantID, uuid.Nil, uuid.Nil, gu.Email, s.RefreshTTL, time.Now())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, loginResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}
