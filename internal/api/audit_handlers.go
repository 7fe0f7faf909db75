package api

import (
	"net/http"
	"strconv"

	"github.com/lumenforge/aac/internal/api/helpers"
	"github.com/lumenforge/aac/internal/api/middleware"
	"github.com/lumenforge/aac/internal/apperr"
	"github.com/lumenforge/aac/internal/storage/db"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

// ListEvents serves the tenant-scoped audit trail, newest first. Limit/
// offset are plain query params; there's no cursor because audit_events is
// append-only and created_at ordering is stable for a fixed snapshot.
func (s *Server) ListEvents(w http.ResponseWriter, r *http.Request) {
	tenantID, err := middleware.TenantID(r.Context())
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("missing tenant context", err))
		return
	}

	limit := int32(defaultAuditPageSize)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			helpers.RespondAppErr(w, s.Logger, apperr.Validation("invalid limit", err))
			return
		}
		if n > maxAuditPageSize {
			n = maxAuditPageSize
		}
		limit = int32(n)
	}

	var offset int32
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			helpers.RespondAppErr(w, s.Logger, apperr.Validation("invalid offset", err))
			return
		}
		offset = int32(n)
	}

	events, err := s.DB.ListEvents(r.Context(), db.ListEventsFilter{TenantID: &tenantID, Limit: limit, Offset: offset})
	if err != nil {
		helpers.RespondAppErr(w, s.Logger, apperr.Internal("listing audit events", err))
		return
	}
	helpers.RespondJSON(w, http.StatusOK, events)
}
