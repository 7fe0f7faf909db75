package api

import (
	"encoding/base64"
	"net/http"

	"github.com/lumenforge/aac/internal/api/helpers"
	"github.com/lumenforge/aac/internal/api/middleware"
	"github.com/lumenforge/aac/internal/apperr"
)

type mfaSetupResponse struct {
	Secret      string   `json:"secret"`
	QRCodePNG   string   `json:"qr_code_png_base64"`
	BackupCodes []string `json:"backup_codes"`
}

func (s *Server) MFASetup(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.AuthN("missing authentication context", err))
		return
	}
	tenantID, err := middleware.TenantID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("missing tenant context", err))
		return
	}
	user, err := s.DB.GetUserByID(r.Context(), tenantID, userID)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("fetching user", err))
		return
	}

	setup, err := s.MFA.BeginSetup(user.Email)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}

	helpers.RespondJSON(w, http.StatusOK, mfaSetupResponse{
		Secret:      setup.Secret,
		QRCodePNG:   base64.StdEncoding.EncodeToString(setup.QRCodePNG),
		BackupCodes: setup.BackupCodes,
	})
}

type mfaActivateRequest struct {
	Secret      string   `json:"secret"`
	Code        string   `json:"code"`
	BackupCodes []string `json:"backup_codes"`
}

func (s *Server) MFAActivate(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.AuthN("missing authentication context", err))
		return
	}

	var req mfaActivateRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.MFA.ActivateMFA(r.Context(), userID, req.Secret, req.Code, req.BackupCodes); err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]bool{"activated": true})
}

func (s *Server) MFADisable(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.AuthN("missing authentication context", err))
		return
	}
	if err := s.MFA.DisableMFA(r.Context(), userID); err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]bool{"disabled": true})
}
