package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lumenforge/aac/internal/api/helpers"
	"github.com/lumenforge/aac/internal/apperr"
	"github.com/lumenforge/aac/internal/notify"
)

type requestResetRequest struct {
	TenantSlug string `json:"tenant_slug"`
	Email      string `json:"email"`
}

// RequestPasswordReset always answers 202 regardless of whether the email
// is registered, so the response itself never discloses account existence.
func (s *Server) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req requestResetRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tenant, err := s.Org.TenantBySlug(r.Context(), req.TenantSlug)
	if err != nil {
		helpers.RespondJSON(w, http.StatusAccepted, map[string]bool{"requested": true})
		return
	}

	result, err := s.Identity.RequestPasswordReset(r.Context(), uuid.UUID(tenant.TenantID.Bytes), req.Email, time.Now())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	if result != nil && !result.Reused {
		if _, err := s.Email.Send(r.Context(), notify.EmailMessage{
			To:       result.User.Email,
			TenantID: uuid.UUID(tenant.TenantID.Bytes),
			Template: notify.TemplatePasswordReset,
			Data:     map[string]any{"code": result.Code, "expires_at": result.ExpiresAt},
		}); err != nil {
			s.Logger.Error("password reset: sending email failed", "err", err)
		}
	}

	helpers.RespondJSON(w, http.StatusAccepted, map[string]bool{"requested": true})
}

type confirmResetRequest struct {
	UserID      uuid.UUID `json:"user_id"`
	Code        string    `json:"code"`
	NewPassword string    `json:"new_password"`
}

func (s *Server) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req confirmResetRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.NewPassword) < 12 {
		helpers.RespondAppErr(w, s.Logger, apperr.Validation("password must be at least 12 characters", nil))
		return
	}

	if err := s.Identity.ConfirmPasswordReset(r.Context(), req.UserID, req.Code, req.NewPassword, time.Now()); err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]bool{"reset": true})
}
