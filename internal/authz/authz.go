// Package authz implements the authorization decision engine: it answers
// whether a user holds a capability at an org node by walking that user's
// currently active assignments against the org-node closure table.
package authz

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lumenforge/aac/internal/capability"
	"github.com/lumenforge/aac/internal/storage/db"
)

// Engine answers decide/decide_many/context. It never mutates state and
// holds no per-request memory; every call is a fresh read against the
// assignment and closure tables.
type Engine struct {
	q   *db.Queries
	log *slog.Logger
}

func NewEngine(q *db.Queries, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{q: q, log: log}
}

// Decide answers whether user holds capKey at targetNode, at time t.
func (e *Engine) Decide(ctx context.Context, tenantID, userID uuid.UUID, capKey string, targetNode uuid.UUID, t time.Time) (bool, error) {
	result, err := e.decideAll(ctx, tenantID, userID, []string{capKey}, targetNode, t)
	if err != nil {
		return false, err
	}
	return result[capKey], nil
}

// DecideMany shares one assignment fetch across every requested capability
// key, and memoizes the closure lookup so each distinct assignment node is
// queried at most once.
func (e *Engine) DecideMany(ctx context.Context, tenantID, userID uuid.UUID, capKeys []string, targetNode uuid.UUID, t time.Time) (map[string]bool, error) {
	return e.decideAll(ctx, tenantID, userID, capKeys, targetNode, t)
}

func (e *Engine) decideAll(ctx context.Context, tenantID, userID uuid.UUID, capKeys []string, targetNode uuid.UUID, t time.Time) (map[string]bool, error) {
	out := make(map[string]bool, len(capKeys))
	for _, k := range capKeys {
		out[k] = false
	}

	suspended, err := e.q.IsTenantSuspended(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if suspended {
		return out, nil
	}

	// targetNode outside the caller's tenant: DENY. GetOrgNode is
	// tenant-scoped, so a cross-tenant node simply fails to resolve.
	if _, err := e.q.GetOrgNode(ctx, tenantID, targetNode); err != nil {
		return out, nil
	}

	parsed := make(map[string]capability.Key, len(capKeys))
	for _, raw := range capKeys {
		k, err := capability.ParseKey(raw)
		if err != nil {
			e.log.Warn("authz: unknown capability key", "key", raw, "err", err)
			continue
		}
		parsed[raw] = k
	}

	assignments, err := e.q.ListActiveAssignments(ctx, tenantID, userID, t)
	if err != nil {
		return nil, err
	}

	// Memoize ancestor-of-or-equal checks: many assignments can share the
	// same org_node_id, and every capability key reuses the same assignment
	// set, so this cache amortizes to one closure-table query per distinct
	// assignment node regardless of how many capability keys are requested.
	ancestorCache := make(map[uuid.UUID]bool)
	isAncestorOrEqual := func(candidate uuid.UUID) (bool, error) {
		if candidate == targetNode {
			return true, nil
		}
		if v, ok := ancestorCache[candidate]; ok {
			return v, nil
		}
		v, err := e.q.IsDescendant(ctx, tenantID, candidate, targetNode)
		if err != nil {
			return false, err
		}
		ancestorCache[candidate] = v
		return v, nil
	}

	for raw, k := range parsed {
		if out[raw] {
			continue
		}
		for _, a := range assignments {
			grants, err := e.assignmentGrants(ctx, a, k, targetNode, isAncestorOrEqual)
			if err != nil {
				return nil, err
			}
			if grants {
				out[raw] = true
				break
			}
		}
	}

	return out, nil
}

// scopeMatches implements §4.7 step 3: own-scoped keys grant only at the
// assignment's exact node; subtree/unscoped keys grant at the assignment's
// node and every descendant of it.
func scopeMatches(k capability.Key, orgNodeID, targetNode uuid.UUID, isAncestorOrEqual func(uuid.UUID) (bool, error)) (bool, error) {
	if k.IsOwnScope() {
		return orgNodeID == targetNode, nil
	}
	return isAncestorOrEqual(orgNodeID)
}

func (e *Engine) assignmentGrants(ctx context.Context, a db.OrgAssignment, k capability.Key, targetNode uuid.UUID, isAncestorOrEqual func(uuid.UUID) (bool, error)) (bool, error) {
	orgNodeID := uuid.UUID(a.OrgNodeID.Bytes)
	roleID := uuid.UUID(a.RoleID.Bytes)

	ok, err := scopeMatches(k, orgNodeID, targetNode, isAncestorOrEqual)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	cap, err := e.q.GetCapabilityByKey(ctx, k.String())
	if err != nil {
		if err == pgx.ErrNoRows {
			// Attached-but-unregistered is impossible to observe from here
			// (registry lookup failing just means "unknown"); fall through
			// to DENY for this assignment.
			return false, nil
		}
		return false, err
	}

	return e.q.RoleHasCapability(ctx, roleID, uuid.UUID(cap.CapID.Bytes))
}

// Context reports the capabilities a user holds at atOrgNode and the set of
// org nodes visible to them, for BFFs rendering UI affordances.
type ContextResult struct {
	Capabilities    []string
	VisibleSubtrees []uuid.UUID
}

func (e *Engine) Context(ctx context.Context, tenantID, userID, atOrgNode uuid.UUID, registeredCaps []string, t time.Time) (*ContextResult, error) {
	decisions, err := e.DecideMany(ctx, tenantID, userID, registeredCaps, atOrgNode, t)
	if err != nil {
		return nil, err
	}

	var granted []string
	for k, ok := range decisions {
		if ok {
			granted = append(granted, k)
		}
	}

	assignments, err := e.q.ListActiveAssignments(ctx, tenantID, userID, t)
	if err != nil {
		return nil, err
	}

	visible := make(map[uuid.UUID]struct{})
	for _, a := range assignments {
		orgNodeID := uuid.UUID(a.OrgNodeID.Bytes)
		roleID := uuid.UUID(a.RoleID.Bytes)

		subtreeBearing, err := e.roleHasSubtreeBearingCapability(ctx, roleID)
		if err != nil {
			return nil, err
		}

		if subtreeBearing {
			descendants, err := e.q.ListSubtree(ctx, tenantID, orgNodeID)
			if err != nil {
				return nil, err
			}
			for _, d := range descendants {
				visible[uuid.UUID(d.OrgNodeID.Bytes)] = struct{}{}
			}
		} else {
			visible[orgNodeID] = struct{}{}
		}
	}

	grants, err := e.q.ListVisibilityGrants(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	for _, g := range grants {
		visible[uuid.UUID(g.OrgNodeID.Bytes)] = struct{}{}
	}

	ids := make([]uuid.UUID, 0, len(visible))
	for id := range visible {
		ids = append(ids, id)
	}

	return &ContextResult{Capabilities: granted, VisibleSubtrees: ids}, nil
}

// roleHasSubtreeBearingCapability reports whether any capability attached to
// role carries subtree or unscoped reach, which makes assignments under that
// role visible across their whole subtree rather than only at their own node.
func (e *Engine) roleHasSubtreeBearingCapability(ctx context.Context, roleID uuid.UUID) (bool, error) {
	caps, err := e.q.ListRoleCapabilities(ctx, roleID)
	if err != nil {
		return false, err
	}
	for _, c := range caps {
		k, err := capability.ParseKey(c.CapKey)
		if err != nil {
			continue
		}
		if k.GrantsAcrossSubtree() {
			return true, nil
		}
	}
	return false, nil
}
