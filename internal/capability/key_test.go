package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey_NoScope(t *testing.T) {
	k, err := ParseKey("crm.visit:view")
	require.NoError(t, err)
	assert.Equal(t, Key{Domain: "crm", Resource: "visit", Action: "view", Scope: ScopeUnscoped}, k)
	assert.True(t, k.GrantsAcrossSubtree())
	assert.False(t, k.IsOwnScope())
}

func TestParseKey_OwnScope(t *testing.T) {
	k, err := ParseKey("crm.visit:edit:own")
	require.NoError(t, err)
	assert.Equal(t, Key{Domain: "crm", Resource: "visit", Action: "edit", Scope: ScopeOwn}, k)
	assert.True(t, k.IsOwnScope())
	assert.False(t, k.GrantsAcrossSubtree())
}

func TestParseKey_SubtreeScope(t *testing.T) {
	k, err := ParseKey("crm.visit:view:subtree")
	require.NoError(t, err)
	assert.Equal(t, ScopeSubtree, k.Scope)
	assert.True(t, k.GrantsAcrossSubtree())
}

func TestParseKey_RoundTripsString(t *testing.T) {
	for _, raw := range []string{"billing.plan:create", "document.file:download", "crm.visit:edit:own"} {
		k, err := ParseKey(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, k.String())
	}
}

func TestParseKey_RejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"noresourceaction",
		"domain.resource",
		"domain.resource:action:unknown-scope",
		".resource:action",
		"domain.:action",
		"domain.resource:",
	}
	for _, raw := range cases {
		_, err := ParseKey(raw)
		assert.Error(t, err, "expected %q to be rejected", raw)
	}
}
