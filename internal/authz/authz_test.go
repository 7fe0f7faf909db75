package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/lumenforge/aac/internal/capability"
)

func TestScopeMatches_OwnScopeRequiresExactNode(t *testing.T) {
	node, other := uuid.New(), uuid.New()
	k := capability.Key{Domain: "crm", Resource: "visit", Action: "edit", Scope: capability.ScopeOwn}

	neverCalled := func(uuid.UUID) (bool, error) {
		t.Fatal("own-scope must not consult the closure table")
		return false, nil
	}

	ok, err := scopeMatches(k, node, node, neverCalled)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = scopeMatches(k, node, other, neverCalled)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestScopeMatches_SubtreeDefersToClosureLookup(t *testing.T) {
	assignmentNode, target := uuid.New(), uuid.New()
	k := capability.Key{Domain: "crm", Resource: "visit", Action: "view", Scope: capability.ScopeSubtree}

	calls := 0
	allow := func(candidate uuid.UUID) (bool, error) {
		calls++
		assert.Equal(t, assignmentNode, candidate)
		return true, nil
	}

	ok, err := scopeMatches(k, assignmentNode, target, allow)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, calls)
}

func TestScopeMatches_UnscopedBehavesLikeSubtree(t *testing.T) {
	assignmentNode, target := uuid.New(), uuid.New()
	k := capability.Key{Domain: "crm", Resource: "visit", Action: "view", Scope: capability.ScopeUnscoped}

	deny := func(uuid.UUID) (bool, error) { return false, nil }

	ok, err := scopeMatches(k, assignmentNode, target, deny)
	assert.NoError(t, err)
	assert.False(t, ok)
}
