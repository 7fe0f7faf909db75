// Package crypto provides the memory-hard password hashing, HMAC signing,
// digesting, and random-secret primitives every other AAC component builds on.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters, fixed per deployment and embedded in the stored hash
// string so verification never depends on runtime configuration matching
// what was used at hash time.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

var ErrInvalidHash = errors.New("crypto: malformed password hash")

// PasswordHasher is the contract services depend on so tests can substitute
// a cheap fake instead of paying Argon2's cost on every table-driven case.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// Argon2Hasher implements PasswordHasher using Argon2id, the memory-hard KDF
// required by the crypto primitives contract.
type Argon2Hasher struct{}

func NewArgon2Hasher() *Argon2Hasher { return &Argon2Hasher{} }

// Hash derives a PHC-style encoded hash: $argon2id$v=19$m=...,t=...,p=...$salt$hash.
func (Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("crypto: generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads, b64Salt, b64Hash)
	return encoded, nil
}

// Verify is constant-time with respect to the stored hash. A malformed hash
// is a misconfiguration, not a credential mismatch, and is returned as an
// error distinct from a false verification result.
func (Argon2Hasher) Verify(password, encodedHash string) (bool, error) {
	params, salt, hash, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(hash)))

	return subtle.ConstantTimeCompare(candidate, hash) == 1, nil
}

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

func decodeHash(encoded string) (argonParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return argonParams{}, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return argonParams{}, nil, nil, ErrInvalidHash
	}

	var p argonParams
	var threads int
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &threads); err != nil {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	p.threads = uint8(threads)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argonParams{}, nil, nil, ErrInvalidHash
	}

	return p, salt, hash, nil
}

// DummyHash is a fixed, valid Argon2id hash of no real password. Credential
// lookups that miss the user still run Verify against this so that "unknown
// user" and "wrong password" take indistinguishable time.
var DummyHash = mustHash("a-fixed-dummy-value-never-a-real-password")

func mustHash(s string) string {
	h, err := (Argon2Hasher{}).Hash(s)
	if err != nil {
		panic(err)
	}
	return h
}
