package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// HMACSHA256 returns the hex-encoded HMAC-SHA256 tag of msg under key.
func HMACSHA256(key, msg []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return hex.EncodeToString(mac.Sum(nil))
}

// SecureCompare is a constant-time string comparison, used for HMAC tag
// verification and any other place a timing side-channel would leak secrets.
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// SHA256Hex returns the hex-encoded SHA-256 digest of data. Used for
// deterministic, one-way lookup hashes of reset/verification tokens —
// never for anything that must resist offline brute force on its own
// (that is the job of Argon2Hasher.Hash).
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// RandomSecret returns n cryptographically random bytes, URL-safe base64 encoded.
func RandomSecret(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto: reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
