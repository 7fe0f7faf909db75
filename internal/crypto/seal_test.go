package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealer_RoundTrip(t *testing.T) {
	key, err := GenerateSealingKey()
	require.NoError(t, err)

	s, err := NewSealer(key, "")
	require.NoError(t, err)

	sealed, err := s.Seal("a service signing secret")
	require.NoError(t, err)
	assert.Contains(t, sealed, "enc:")

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "a service signing secret", opened)
}

func TestSealer_RotationReadsOldAndNewKeys(t *testing.T) {
	oldKey, err := GenerateSealingKey()
	require.NoError(t, err)
	newKey, err := GenerateSealingKey()
	require.NoError(t, err)

	oldSealer, err := NewSealer(oldKey, "")
	require.NoError(t, err)
	sealedWithOld, err := oldSealer.Seal("pre-rotation secret")
	require.NoError(t, err)

	rotated, err := NewSealer(newKey, oldKey)
	require.NoError(t, err)

	opened, err := rotated.Open(sealedWithOld)
	require.NoError(t, err)
	assert.Equal(t, "pre-rotation secret", opened)

	sealedWithNew, err := rotated.Seal("post-rotation secret")
	require.NoError(t, err)
	opened2, err := rotated.Open(sealedWithNew)
	require.NoError(t, err)
	assert.Equal(t, "post-rotation secret", opened2)
}

func TestSealer_TamperedCiphertextFails(t *testing.T) {
	key, err := GenerateSealingKey()
	require.NoError(t, err)
	s, err := NewSealer(key, "")
	require.NoError(t, err)

	sealed, err := s.Seal("secret")
	require.NoError(t, err)

	tampered := sealed[:len(sealed)-1] + "x"
	_, err = s.Open(tampered)
	assert.Error(t, err)
}
