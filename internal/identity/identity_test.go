package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOTPCode_IsSixDigits(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := generateOTPCode()
		assert.NoError(t, err)
		assert.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "codes should vary across calls")
}
