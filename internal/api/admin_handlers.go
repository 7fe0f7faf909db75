package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/lumenforge/aac/internal/api/helpers"
	"github.com/lumenforge/aac/internal/apperr"
)

// Bootstrap-only endpoints gated behind middleware.AdminAuth: tenant
// creation and suspension precede any tenant-scoped user existing, so they
// can't be protected by the bearer-token scheme everything else uses.

type createTenantRequest struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

func (s *Server) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Slug == "" {
		helpers.RespondAppErr(w, s.Logger, apperr.Validation("slug is required", nil))
		return
	}

	tenant, err := s.Org.CreateTenant(r.Context(), req.Slug, req.Label)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusCreated, tenant)
}

type suspendTenantRequest struct {
	TenantID string `json:"tenant_id"`
}

func (s *Server) SuspendTenant(w http.ResponseWriter, r *http.Request) {
	var req suspendTenantRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := uuid.Parse(req.TenantID)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Validation("invalid tenant id", err))
		return
	}

	if err := s.Org.SuspendTenant(r.Context(), id); err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]bool{"suspended": true})
}

type registerCapabilityRequest struct {
	CapKey string `json:"cap_key"`
}

// RegisterCapability adds a new entry to the global capability catalogue.
// Downstream services ship their required keys as constants; this endpoint
// is how those keys first land in the registry.
func (s *Server) RegisterCapability(w http.ResponseWriter, r *http.Request) {
	var req registerCapabilityRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cap, err := s.Capability.Register(r.Context(), req.CapKey)
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, err)
		return
	}
	helpers.RespondJSON(w, http.StatusCreated, cap)
}
