package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumenforge/aac/internal/api/helpers"
	"github.com/lumenforge/aac/internal/api/middleware"
	"github.com/lumenforge/aac/internal/apperr"
)

type createRoleRequest struct {
	Label string `json:"label"`
}

func (s *Server) CreateRole(w http.ResponseWriter, r *http.Request) {
	tenantID, err := middleware.TenantID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("missing tenant context", err))
		return
	}

	var req createRoleRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := s.Capability.CreateRole(r.Context(), tenantID, req.Label)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusCreated, role)
}

type attachCapabilityRequest struct {
	CapKey string `json:"cap_key"`
}

func (s *Server) AttachCapability(w http.ResponseWriter, r *http.Request) {
	tenantID, err := middleware.TenantID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("missing tenant context", err))
		return
	}
	roleID, err := uuid.Parse(chi.URLParam(r, "roleID"))
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Validation("invalid role id", err))
		return
	}

	var req attachCapabilityRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.Capability.AttachCapability(r.Context(), tenantID, roleID, req.CapKey); err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]bool{"attached": true})
}

func (s *Server) DetachCapability(w http.ResponseWriter, r *http.Request) {
	roleID, err := uuid.Parse(chi.URLParam(r, "roleID"))
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Validation("invalid role id", err))
		return
	}
	capKey := chi.URLParam(r, "capKey")

	if err := s.Capability.DetachCapability(r.Context(), roleID, capKey); err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]bool{"detached": true})
}

func (s *Server) ListRoleCapabilities(w http.ResponseWriter, r *http.Request) {
	roleID, err := uuid.Parse(chi.URLParam(r, "roleID"))
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Validation("invalid role id", err))
		return
	}

	keys, err := s.Capability.ListRoleCapabilities(r.Context(), roleID)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string][]string{"capabilities": keys})
}
