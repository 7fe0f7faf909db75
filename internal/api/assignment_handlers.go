package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumenforge/aac/internal/api/helpers"
	"github.com/lumenforge/aac/internal/api/middleware"
	"github.com/lumenforge/aac/internal/apperr"
)

type assignRequest struct {
	UserID    uuid.UUID `json:"user_id"`
	OrgNodeID uuid.UUID `json:"org_node_id"`
	RoleID    uuid.UUID `json:"role_id"`
	StartAt   time.Time `json:"start_at,omitempty"`
}

func (s *Server) Assign(w http.ResponseWriter, r *http.Request) {
	tenantID, err := middleware.TenantID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("missing tenant context", err))
		return
	}

	var req assignRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := s.Assignment.Assign(r.Context(), tenantID, req.UserID, req.OrgNodeID, req.RoleID, req.StartAt)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusCreated, a)
}

type endAssignmentRequest struct {
	EndAt time.Time `json:"end_at"`
}

func (s *Server) EndAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := uuid.Parse(chi.URLParam(r, "assignmentID"))
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Validation("invalid assignment id", err))
		return
	}

	var req endAssignmentRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	at := req.EndAt
	if at.IsZero() {
		at = time.Now()
	}

	if err := s.Assignment.End(r.Context(), assignmentID, at); err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]bool{"ended": true})
}

func (s *Server) ListActiveAssignments(w http.ResponseWriter, r *http.Request) {
	tenantID, err := middleware.TenantID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("missing tenant context", err))
		return
	}
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Validation("invalid user id", err))
		return
	}

	out, err := s.Assignment.ListActive(r.Context(), tenantID, userID, time.Now())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, out)
}

type visibilityGrantRequest struct {
	UserID    uuid.UUID `json:"user_id"`
	OrgNodeID uuid.UUID `json:"org_node_id"`
}

// GrantVisibility is idempotent on (tenant, user, org_node): granting the
// same triple twice produces one row, not a conflict.
func (s *Server) GrantVisibility(w http.ResponseWriter, r *http.Request) {
	tenantID, err := middleware.TenantID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("missing tenant context", err))
		return
	}

	var req visibilityGrantRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g, err := s.Assignment.GrantVisibility(r.Context(), tenantID, req.UserID, req.OrgNodeID)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusCreated, g)
}

func (s *Server) RevokeVisibility(w http.ResponseWriter, r *http.Request) {
	tenantID, err := middleware.TenantID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("missing tenant context", err))
		return
	}

	var req visibilityGrantRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.Assignment.RevokeVisibility(r.Context(), tenantID, req.UserID, req.OrgNodeID); err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}

func (s *Server) ListVisibility(w http.ResponseWriter, r *http.Request) {
	tenantID, err := middleware.TenantID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("missing tenant context", err))
		return
	}
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Validation("invalid user id", err))
		return
	}

	out, err := s.Assignment.ListVisibility(r.Context(), tenantID, userID)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, out)
}
