package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lumenforge/aac/internal/api/helpers"
	"github.com/lumenforge/aac/internal/api/middleware"
	"github.com/lumenforge/aac/internal/apperr"
)

type decideRequest struct {
	UserID     uuid.UUID `json:"user_id"`
	CapKey     string    `json:"cap_key"`
	TargetNode uuid.UUID `json:"target_node"`
}

func (s *Server) Decide(w http.ResponseWriter, r *http.Request) {
	tenantID, err := middleware.TenantID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("missing tenant context", err))
		return
	}

	var req decideRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	allowed, err := s.Authz.Decide(r.Context(), tenantID, req.UserID, req.CapKey, req.TargetNode, time.Now())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}

type decideManyRequest struct {
	UserID     uuid.UUID `json:"user_id"`
	CapKeys    []string  `json:"cap_keys"`
	TargetNode uuid.UUID `json:"target_node"`
}

func (s *Server) DecideMany(w http.ResponseWriter, r *http.Request) {
	tenantID, err := middleware.TenantID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("missing tenant context", err))
		return
	}

	var req decideManyRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	decisions, err := s.Authz.DecideMany(r.Context(), tenantID, req.UserID, req.CapKeys, req.TargetNode, time.Now())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]map[string]bool{"decisions": decisions})
}

type authzContextRequest struct {
	UserID         uuid.UUID `json:"user_id"`
	AtOrgNode      uuid.UUID `json:"at_org_node"`
	RegisteredCaps []string  `json:"registered_caps"`
}

// Context answers the BFF-rendering query: which capabilities the caller
// holds at a node, and which org nodes are visible to them at all.
func (s *Server) Context(w http.ResponseWriter, r *http.Request) {
	tenantID, err := middleware.TenantID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("missing tenant context", err))
		return
	}

	var req authzContextRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.Authz.Context(r.Context(), tenantID, req.UserID, req.AtOrgNode, req.RegisteredCaps, time.Now())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, result)
}
