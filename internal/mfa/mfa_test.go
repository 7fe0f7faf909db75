package mfa

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBackupCodes_FormatAndUniqueness(t *testing.T) {
	codes, err := generateBackupCodes(10)
	require.NoError(t, err)
	assert.Len(t, codes, 10)

	seen := make(map[string]bool)
	for _, c := range codes {
		assert.Len(t, c, 9, "expected XXXX-XXXX format")
		assert.Equal(t, byte('-'), c[4])
		assert.False(t, seen[c], "backup codes should not repeat within a batch")
		seen[c] = true
	}
}

func TestValidateCode_AcceptsCodeGeneratedFromSameSecret(t *testing.T) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "aac", AccountName: "user@example.com"})
	require.NoError(t, err)

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	require.NoError(t, err)

	assert.True(t, ValidateCode(code, key.Secret()))
	assert.False(t, ValidateCode("000000", key.Secret()+"x"))
}
