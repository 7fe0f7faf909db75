package capability

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lumenforge/aac/internal/apperr"
	"github.com/lumenforge/aac/internal/storage/db"
)

// Registry exposes the global capability catalogue and tenant-scoped role
// mapping (C5).
type Registry struct {
	q *db.Queries
}

func NewRegistry(q *db.Queries) *Registry {
	return &Registry{q: q}
}

// Register inserts a new global capability. Malformed keys are rejected at
// insert, never persisted for later components to trip over.
func (r *Registry) Register(ctx context.Context, capKey string) (db.Capability, error) {
	if _, err := ParseKey(capKey); err != nil {
		return db.Capability{}, err
	}

	cap, err := r.q.CreateCapability(ctx, uuid.New(), capKey)
	if err != nil {
		if isUniqueViolation(err) {
			return db.Capability{}, apperr.Conflict("capability already registered", err)
		}
		return db.Capability{}, apperr.Internal("creating capability", err)
	}
	return cap, nil
}

func (r *Registry) Lookup(ctx context.Context, capKey string) (db.Capability, error) {
	cap, err := r.q.GetCapabilityByKey(ctx, capKey)
	if err != nil {
		if isNoRows(err) {
			return db.Capability{}, apperr.NotFound("unknown capability", err)
		}
		return db.Capability{}, apperr.Internal("looking up capability", err)
	}
	return cap, nil
}

func (r *Registry) CreateRole(ctx context.Context, tenantID uuid.UUID, label string) (db.Role, error) {
	role, err := r.q.CreateRole(ctx, uuid.New(), tenantID, label)
	if err != nil {
		return db.Role{}, apperr.Internal("creating role", err)
	}
	return role, nil
}

func (r *Registry) AttachCapability(ctx context.Context, tenantID, roleID uuid.UUID, capKey string) error {
	role, err := r.q.GetRole(ctx, tenantID, roleID)
	if err != nil {
		if isNoRows(err) {
			return apperr.NotFound("unknown role", err)
		}
		return apperr.Internal("fetching role", err)
	}

	cap, err := r.Lookup(ctx, capKey)
	if err != nil {
		return err
	}

	if err := r.q.AttachCapability(ctx, role.RoleID.Bytes, cap.CapID.Bytes); err != nil {
		return apperr.Internal("attaching capability", err)
	}
	return nil
}

func (r *Registry) DetachCapability(ctx context.Context, roleID uuid.UUID, capKey string) error {
	cap, err := r.Lookup(ctx, capKey)
	if err != nil {
		return err
	}
	if err := r.q.DetachCapability(ctx, roleID, cap.CapID.Bytes); err != nil {
		return apperr.Internal("detaching capability", err)
	}
	return nil
}

func (r *Registry) ListRoleCapabilities(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	caps, err := r.q.ListRoleCapabilities(ctx, roleID)
	if err != nil {
		return nil, apperr.Internal("listing role capabilities", err)
	}
	keys := make([]string, len(caps))
	for i, c := range caps {
		keys[i] = c.CapKey
	}
	return keys, nil
}

func isNoRows(err error) bool {
	return err == pgx.ErrNoRows
}

// isUniqueViolation is a best-effort check kept deliberately loose: it does
// not assert pgconn.PgError (which callers without a live Postgres connection
// cannot exercise in tests) and instead matches the error text for
// "duplicate key value" or "SQLSTATE 23505".
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "SQLSTATE 23505")
}
