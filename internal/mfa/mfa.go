// Package mfa implements TOTP-based second-factor setup, activation, and
// verification, plus one-time backup recovery codes.
package mfa

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"image/png"
	"math/big"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"

	"github.com/lumenforge/aac/internal/apperr"
	"github.com/lumenforge/aac/internal/crypto"
	"github.com/lumenforge/aac/internal/storage/db"
)

// backupCodeCharset excludes I, O, 0, 1 so printed codes aren't ambiguous.
const backupCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type Service struct {
	q      *db.Queries
	issuer string
}

func NewService(q *db.Queries, issuer string) *Service {
	return &Service{q: q, issuer: issuer}
}

type SetupResult struct {
	Secret      string
	QRCodePNG   []byte
	BackupCodes []string
}

// BeginSetup generates a fresh TOTP secret and a batch of backup codes.
// Nothing is persisted yet; the caller must call ActivateMFA with a code the
// user entered against this secret before it takes effect.
func (s *Service) BeginSetup(accountEmail string) (*SetupResult, error) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: s.issuer, AccountName: accountEmail})
	if err != nil {
		return nil, apperr.Internal("generating totp secret", err)
	}

	img, err := key.Image(200, 200)
	if err != nil {
		return nil, apperr.Internal("rendering totp qr code", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperr.Internal("encoding totp qr code", err)
	}

	codes, err := generateBackupCodes(10)
	if err != nil {
		return nil, apperr.Internal("generating backup codes", err)
	}

	return &SetupResult{Secret: key.Secret(), QRCodePNG: buf.Bytes(), BackupCodes: codes}, nil
}

// ActivateMFA validates code against secret, then persists the secret and
// the hashed backup codes and flips the user's mfa_enabled flag. Any codes
// from a prior setup attempt are cleared first.
func (s *Service) ActivateMFA(ctx context.Context, userID uuid.UUID, secret, code string, backupCodes []string) error {
	if !ValidateCode(code, secret) {
		return apperr.AuthN("invalid totp code", nil)
	}

	if err := s.q.DeleteBackupCodes(ctx, userID); err != nil {
		return apperr.Internal("clearing prior backup codes", err)
	}
	for _, raw := range backupCodes {
		if err := s.q.CreateBackupCode(ctx, uuid.New(), userID, crypto.SHA256Hex([]byte(raw))); err != nil {
			return apperr.Internal("storing backup code", err)
		}
	}

	if err := s.q.SetUserMFA(ctx, userID, secret, true); err != nil {
		return apperr.Internal("enabling mfa", err)
	}
	return nil
}

// DisableMFA turns MFA off and discards any remaining backup codes.
func (s *Service) DisableMFA(ctx context.Context, userID uuid.UUID) error {
	if err := s.q.DeleteBackupCodes(ctx, userID); err != nil {
		return apperr.Internal("clearing backup codes", err)
	}
	if err := s.q.SetUserMFA(ctx, userID, "", false); err != nil {
		return apperr.Internal("disabling mfa", err)
	}
	return nil
}

// VerifyLogin checks a login-time TOTP code against the user's stored
// secret. u must have MfaEnabled set; callers are expected to have already
// loaded the user row.
func (s *Service) VerifyLogin(u db.User, code string) bool {
	if !u.MfaEnabled || !u.MfaSecret.Valid {
		return false
	}
	return ValidateCode(code, u.MfaSecret.String)
}

// VerifyBackupCode consumes a backup code if it matches an unused one on
// file, reporting whether it did.
func (s *Service) VerifyBackupCode(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	ok, err := s.q.ConsumeBackupCode(ctx, userID, crypto.SHA256Hex([]byte(code)))
	if err != nil {
		return false, apperr.Internal("consuming backup code", err)
	}
	return ok, nil
}

// ValidateCode checks a TOTP code against secret, allowing pquerna/otp's
// default one-period clock skew.
func ValidateCode(code, secret string) bool {
	return totp.Validate(code, secret)
}

func generateBackupCodes(count int) ([]string, error) {
	codes := make([]string, count)
	for i := 0; i < count; i++ {
		raw := make([]byte, 8)
		for j := range raw {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(backupCodeCharset))))
			if err != nil {
				return nil, fmt.Errorf("reading random backup code byte: %w", err)
			}
			raw[j] = backupCodeCharset[n.Int64()]
		}
		codes[i] = string(raw[:4]) + "-" + string(raw[4:])
	}
	return codes, nil
}
