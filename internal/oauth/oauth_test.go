package oauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateStore_PopIsSingleUse(t *testing.T) {
	store := NewMemoryStateStore()
	require.NoError(t, store.Put(context.Background(), "state-1", "verifier-1", time.Minute))

	v, ok, err := store.PopVerifier(context.Background(), "state-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "verifier-1", v)

	_, ok, err = store.PopVerifier(context.Background(), "state-1")
	require.NoError(t, err)
	assert.False(t, ok, "a state value must not be redeemable twice")
}

func TestMemoryStateStore_ExpiredEntryIsRejected(t *testing.T) {
	store := NewMemoryStateStore()
	require.NoError(t, store.Put(context.Background(), "state-1", "verifier-1", -time.Second))

	_, ok, err := store.PopVerifier(context.Background(), "state-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStateStore_UnknownStateIsRejected(t *testing.T) {
	store := NewMemoryStateStore()
	_, ok, err := store.PopVerifier(context.Background(), "never-issued")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRandomToken_IsNonEmptyAndVaries(t *testing.T) {
	a, err := randomToken()
	require.NoError(t, err)
	b, err := randomToken()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
