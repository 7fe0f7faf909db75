package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2Hasher_HashVerifyRoundTrip(t *testing.T) {
	h := NewArgon2Hasher()

	hash, err := h.Hash("Secret123!")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := h.Verify("Secret123!", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgon2Hasher_WrongPasswordFails(t *testing.T) {
	h := NewArgon2Hasher()

	hash, err := h.Hash("Secret123!")
	require.NoError(t, err)

	ok, err := h.Verify("wrong-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2Hasher_DistinctSaltsPerCall(t *testing.T) {
	h := NewArgon2Hasher()

	h1, err := h.Hash("Secret123!")
	require.NoError(t, err)
	h2, err := h.Hash("Secret123!")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "two hashes of the same password must use distinct salts")
}

func TestArgon2Hasher_MalformedHashIsError(t *testing.T) {
	h := NewArgon2Hasher()

	_, err := h.Verify("anything", "not-a-valid-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestDummyHash_VerifiesAsFalseNeverError(t *testing.T) {
	h := NewArgon2Hasher()
	ok, err := h.Verify("whatever-the-caller-typed", DummyHash)
	require.NoError(t, err)
	assert.False(t, ok)
}
