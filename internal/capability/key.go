// Package capability implements the global capability registry and the
// tenant-scoped role → capability mapping.
package capability

import (
	"fmt"
	"strings"

	"github.com/lumenforge/aac/internal/apperr"
)

// Scope narrows where an assignment carrying a capability grants it.
type Scope string

const (
	ScopeUnscoped Scope = ""
	ScopeOwn      Scope = "own"
	ScopeSubtree  Scope = "subtree"
)

// Key is a parsed capability key: domain.resource:action[:scope].
type Key struct {
	Domain   string
	Resource string
	Action   string
	Scope    Scope
}

func (k Key) String() string {
	s := fmt.Sprintf("%s.%s:%s", k.Domain, k.Resource, k.Action)
	if k.Scope != ScopeUnscoped {
		s += ":" + string(k.Scope)
	}
	return s
}

// ParseKey is total: every malformed key is rejected with a Validation
// error rather than producing a partially-populated Key.
func ParseKey(raw string) (Key, error) {
	domainRest := strings.SplitN(raw, ".", 2)
	if len(domainRest) != 2 || domainRest[0] == "" {
		return Key{}, apperr.Validation(fmt.Sprintf("capability key %q missing domain", raw), nil)
	}
	domain := domainRest[0]

	parts := strings.Split(domainRest[1], ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Key{}, apperr.Validation(fmt.Sprintf("capability key %q malformed resource:action[:scope]", raw), nil)
	}

	resource, action := parts[0], parts[1]
	if resource == "" || action == "" {
		return Key{}, apperr.Validation(fmt.Sprintf("capability key %q has empty resource or action", raw), nil)
	}

	scope := ScopeUnscoped
	if len(parts) == 3 {
		switch Scope(parts[2]) {
		case ScopeOwn, ScopeSubtree:
			scope = Scope(parts[2])
		default:
			return Key{}, apperr.Validation(fmt.Sprintf("capability key %q has unknown scope %q", raw, parts[2]), nil)
		}
	}

	return Key{Domain: domain, Resource: resource, Action: action, Scope: scope}, nil
}

// IsOwnScope reports whether the key is scoped to the assignment's exact node.
func (k Key) IsOwnScope() bool { return k.Scope == ScopeOwn }

// IsSubtreeScope reports whether the key grants across the assignment's
// subtree. Unscoped keys behave identically to subtree for decision purposes
// (§4.7 step 3a groups them), but the distinction is kept for callers that
// need to tell "explicitly subtree" from "no scope specified" apart.
func (k Key) IsSubtreeScope() bool { return k.Scope == ScopeSubtree }

// GrantsAcrossSubtree reports whether an assignment carrying this key grants
// at any descendant of the assignment's org-node, not only at that node itself.
func (k Key) GrantsAcrossSubtree() bool { return k.Scope == ScopeSubtree || k.Scope == ScopeUnscoped }
