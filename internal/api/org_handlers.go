package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumenforge/aac/internal/api/helpers"
	"github.com/lumenforge/aac/internal/api/middleware"
	"github.com/lumenforge/aac/internal/apperr"
)

type createOrgNodeRequest struct {
	TypeCode string     `json:"type_code"`
	Label    string     `json:"label"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

func (s *Server) CreateOrgNode(w http.ResponseWriter, r *http.Request) {
	tenantID, err := middleware.TenantID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("missing tenant context", err))
		return
	}

	var req createOrgNodeRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	node, err := s.Org.CreateOrgNode(r.Context(), tenantID, req.TypeCode, req.Label, req.ParentID)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusCreated, node)
}

func (s *Server) DeactivateOrgNode(w http.ResponseWriter, r *http.Request) {
	tenantID, err := middleware.TenantID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("missing tenant context", err))
		return
	}
	nodeID, err := uuid.Parse(chi.URLParam(r, "nodeID"))
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Validation("invalid node id", err))
		return
	}

	if err := s.Org.DeactivateOrgNode(r.Context(), tenantID, nodeID); err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]bool{"deactivated": true})
}

func (s *Server) ListSubtree(w http.ResponseWriter, r *http.Request) {
	tenantID, err := middleware.TenantID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("missing tenant context", err))
		return
	}
	rootID, err := uuid.Parse(chi.URLParam(r, "nodeID"))
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Validation("invalid node id", err))
		return
	}

	nodes, err := s.Org.ListSubtree(r.Context(), tenantID, rootID)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, nodes)
}
