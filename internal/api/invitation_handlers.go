package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lumenforge/aac/internal/api/helpers"
	"github.com/lumenforge/aac/internal/api/middleware"
	"github.com/lumenforge/aac/internal/apperr"
	"github.com/lumenforge/aac/internal/notify"
)

type createInvitationRequest struct {
	Email     string    `json:"email"`
	OrgNodeID uuid.UUID `json:"org_node_id"`
	RoleID    uuid.UUID `json:"role_id"`
}

type createInvitationResponse struct {
	InvitationID uuid.UUID `json:"invitation_id"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// CreateInvitation mints a pending invitation and emails (logs, in this
// deployment) the one-time acceptance token to the invitee.
func (s *Server) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	tenantID, err := middleware.TenantID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("missing tenant context", err))
		return
	}
	actorID, err := middleware.UserID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.AuthN("missing authentication context", err))
		return
	}

	var req createInvitationRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.Invitations.Create(r.Context(), tenantID, req.OrgNodeID, req.RoleID, actorID, req.Email, 0)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}

	if _, err := s.Email.Send(r.Context(), notify.EmailMessage{
		To:       req.Email,
		TenantID: tenantID,
		Template: notify.TemplateInvitation,
		Data:     map[string]any{"token": result.Token, "expires_at": result.Invitation.ExpiryAt.Time},
	}); err != nil {
		s.Logger.Error("invitation: sending email failed", "err", err)
	}

	helpers.RespondJSON(w, http.StatusCreated, createInvitationResponse{
		InvitationID: uuid.UUID(result.Invitation.InvitationID.Bytes),
		ExpiresAt:    result.Invitation.ExpiryAt.Time,
	})
}

type acceptInvitationRequest struct {
	Token  string    `json:"token"`
	UserID uuid.UUID `json:"user_id"`
}

// AcceptInvitation assigns the already-identified user to the invitation's
// (role, org-node). Callers establish the user's identity beforehand
// (registration or login) — invitations grant access, not accounts.
func (s *Server) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var req acceptInvitationRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := s.Invitations.Accept(r.Context(), req.Token, req.UserID, time.Now())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, a)
}

type revokeInvitationRequest struct {
	InvitationID uuid.UUID `json:"invitation_id"`
}

func (s *Server) RevokeInvitation(w http.ResponseWriter, r *http.Request) {
	var req revokeInvitationRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.Invitations.Revoke(r.Context(), req.InvitationID, time.Now()); err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}
