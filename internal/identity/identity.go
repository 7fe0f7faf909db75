// Package identity manages user accounts, their login identities, and the
// email-verification OTP issued at registration.
package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lumenforge/aac/internal/apperr"
	"github.com/lumenforge/aac/internal/crypto"
	"github.com/lumenforge/aac/internal/storage/db"
)

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"

	purposeEmailVerify   = "email_verify"
	purposePasswordReset = "password_reset"
	verifyOTPTTL         = 15 * time.Minute
	resetOTPTTL          = 15 * time.Minute
)

// RegisterResult carries the OTP plaintext only when this call minted a new
// one; a retry that hit an already-active OTP returns Reused=true and no
// plaintext, since the code was only ever knowable at the moment it was
// first generated.
type RegisterResult struct {
	User    db.User
	Code    string
	Reused  bool
	ExpiresAt time.Time
}

type Service struct {
	q      *db.Queries
	hasher crypto.PasswordHasher
}

func NewService(q *db.Queries, hasher crypto.PasswordHasher) *Service {
	return &Service{q: q, hasher: hasher}
}

// RegisterUser creates an unverified user plus a password identity and an
// email-verification OTP. A repeated call for an email already registered in
// the tenant returns a Conflict error; it neither re-issues nor reuses the
// existing verification code.
func (s *Service) RegisterUser(ctx context.Context, tenantID uuid.UUID, email, password, displayName string) (*RegisterResult, error) {
	if _, err := s.q.GetUserByEmail(ctx, tenantID, email); err == nil {
		return nil, apperr.Conflict("email already registered in this tenant", nil)
	} else if err != pgx.ErrNoRows {
		return nil, apperr.Internal("checking existing user", err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperr.Internal("hashing password", err)
	}

	user, err := s.q.CreateUser(ctx, db.CreateUserParams{
		UserID:      uuid.New(),
		TenantID:    tenantID,
		Email:       email,
		DisplayName: displayName,
	})
	if err != nil {
		return nil, apperr.Internal("creating user", err)
	}

	if _, err := s.q.AddIdentity(ctx, db.AddIdentityParams{
		IdentID:      uuid.New(),
		UserID:       uuid.UUID(user.UserID.Bytes),
		ProviderCode: ProviderPassword,
		IdentHash:    passwordHash,
	}); err != nil {
		return nil, apperr.Internal("attaching password identity", err)
	}

	return s.issueVerificationOTP(ctx, uuid.UUID(user.UserID.Bytes), user, time.Now())
}

func (s *Service) issueVerificationOTP(ctx context.Context, userID uuid.UUID, user db.User, now time.Time) (*RegisterResult, error) {
	return s.issueOTP(ctx, purposeEmailVerify, verifyOTPTTL, userID, user, now)
}

func (s *Service) issueOTP(ctx context.Context, purpose string, ttl time.Duration, userID uuid.UUID, user db.User, now time.Time) (*RegisterResult, error) {
	if existing, err := s.q.GetActiveOtp(ctx, userID, purpose, now); err == nil {
		return &RegisterResult{User: user, Reused: true, ExpiresAt: existing.ExpiryAt.Time}, nil
	} else if err != pgx.ErrNoRows {
		return nil, apperr.Internal("checking active otp", err)
	}

	code, err := generateOTPCode()
	if err != nil {
		return nil, apperr.Internal("generating otp code", err)
	}

	expiresAt := now.Add(ttl)
	if _, err := s.q.CreateOtp(ctx, db.CreateOtpParams{
		OtpID:       uuid.New(),
		UserID:      userID,
		PurposeCode: purpose,
		OtpHash:     crypto.SHA256Hex([]byte(code)),
		ExpiresAt:   expiresAt,
	}); err != nil {
		return nil, apperr.Internal("storing otp", err)
	}

	return &RegisterResult{User: user, Code: code, ExpiresAt: expiresAt}, nil
}

// RequestPasswordReset issues a reset OTP for the account with the given
// email, if one exists in the tenant. A nil result with no error means no
// such account exists; callers must respond identically to that case and a
// genuine issuance, so the response never reveals whether an email is
// registered.
func (s *Service) RequestPasswordReset(ctx context.Context, tenantID uuid.UUID, email string, now time.Time) (*RegisterResult, error) {
	user, err := s.q.GetUserByEmail(ctx, tenantID, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, apperr.Internal("looking up user for password reset", err)
	}
	return s.issueOTP(ctx, purposePasswordReset, resetOTPTTL, uuid.UUID(user.UserID.Bytes), user, now)
}

// ConfirmPasswordReset consumes the active reset OTP and rotates the
// account's password identity.
func (s *Service) ConfirmPasswordReset(ctx context.Context, userID uuid.UUID, code, newPassword string, now time.Time) error {
	otp, err := s.q.GetActiveOtp(ctx, userID, purposePasswordReset, now)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperr.Validation("no active password reset code", nil)
		}
		return apperr.Internal("fetching password reset otp", err)
	}

	if !crypto.SecureCompare(otp.OtpHash, crypto.SHA256Hex([]byte(code))) {
		return apperr.Validation("incorrect password reset code", nil)
	}

	if err := s.q.ConsumeOtp(ctx, uuid.UUID(otp.OtpID.Bytes), now); err != nil {
		return apperr.Internal("consuming password reset otp", err)
	}

	return s.RotatePassword(ctx, userID, newPassword)
}

// VerifyEmail consumes the active email-verification OTP if code matches.
func (s *Service) VerifyEmail(ctx context.Context, userID uuid.UUID, code string, now time.Time) error {
	otp, err := s.q.GetActiveOtp(ctx, userID, purposeEmailVerify, now)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperr.Validation("no active verification code", nil)
		}
		return apperr.Internal("fetching verification otp", err)
	}

	if !crypto.SecureCompare(otp.OtpHash, crypto.SHA256Hex([]byte(code))) {
		return apperr.Validation("incorrect verification code", nil)
	}

	if err := s.q.ConsumeOtp(ctx, uuid.UUID(otp.OtpID.Bytes), now); err != nil {
		return apperr.Internal("consuming verification otp", err)
	}
	if err := s.q.MarkUserVerified(ctx, userID); err != nil {
		return apperr.Internal("marking user verified", err)
	}
	return nil
}

// FindOrCreateSocial resolves an IdP subject to a user, creating a verified
// user and attaching the social identity on first sign-in. Social accounts
// skip email-verification OTP since the IdP already vouched for the address.
func (s *Service) FindOrCreateSocial(ctx context.Context, tenantID uuid.UUID, provider, subject, email, displayName string) (db.User, error) {
	user, err := s.q.FindUserBySocialSubject(ctx, tenantID, provider, subject)
	if err == nil {
		return user, nil
	}
	if err != pgx.ErrNoRows {
		return db.User{}, apperr.Internal("looking up social identity", err)
	}

	user, err = s.q.GetUserByEmail(ctx, tenantID, email)
	if err != nil {
		if err != pgx.ErrNoRows {
			return db.User{}, apperr.Internal("checking existing user by email", err)
		}
		user, err = s.q.CreateUser(ctx, db.CreateUserParams{
			UserID:      uuid.New(),
			TenantID:    tenantID,
			Email:       email,
			DisplayName: displayName,
		})
		if err != nil {
			return db.User{}, apperr.Internal("creating social user", err)
		}
	}

	if err := s.q.MarkUserVerified(ctx, uuid.UUID(user.UserID.Bytes)); err != nil {
		return db.User{}, apperr.Internal("marking social user verified", err)
	}
	if _, err := s.q.AddIdentity(ctx, db.AddIdentityParams{
		IdentID:      uuid.New(),
		UserID:       uuid.UUID(user.UserID.Bytes),
		ProviderCode: provider,
		IdentHash:    subject,
	}); err != nil {
		return db.User{}, apperr.Internal("attaching social identity", err)
	}

	return user, nil
}

func (s *Service) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (db.User, error) {
	u, err := s.q.GetUserByEmail(ctx, tenantID, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return db.User{}, apperr.NotFound("unknown user", err)
		}
		return db.User{}, apperr.Internal("fetching user", err)
	}
	return u, nil
}

// AddIdentity attaches or replaces a provider identity for an existing user.
// For password it is the password hash; for social it is the IdP subject id.
func (s *Service) AddIdentity(ctx context.Context, userID uuid.UUID, provider, identHash string) (db.UserIdentity, error) {
	i, err := s.q.AddIdentity(ctx, db.AddIdentityParams{
		IdentID:      uuid.New(),
		UserID:       userID,
		ProviderCode: provider,
		IdentHash:    identHash,
	})
	if err != nil {
		return db.UserIdentity{}, apperr.Internal("attaching identity", err)
	}
	return i, nil
}

func (s *Service) RotatePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal("hashing new password", err)
	}
	if _, err := s.q.AddIdentity(ctx, db.AddIdentityParams{
		IdentID:      uuid.New(),
		UserID:       userID,
		ProviderCode: ProviderPassword,
		IdentHash:    hash,
	}); err != nil {
		return apperr.Internal("rotating password", err)
	}
	return nil
}

// VerifyPassword checks a login attempt's plaintext against the stored
// password identity, using the dummy hash when no identity exists so the
// request takes the same time either way.
func (s *Service) VerifyPassword(ctx context.Context, userID uuid.UUID, password string) (bool, error) {
	ident, err := s.q.GetIdentity(ctx, userID, ProviderPassword)
	if err != nil {
		if err == pgx.ErrNoRows {
			_, _ = s.hasher.Verify(password, crypto.DummyHash)
			return false, nil
		}
		return false, apperr.Internal("fetching password identity", err)
	}

	ok, err := s.hasher.Verify(password, ident.IdentHash)
	if err != nil {
		return false, apperr.Internal("verifying password", err)
	}
	return ok, nil
}

func generateOTPCode() (string, error) {
	max := int64(1000000)
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	n := (int64(b[0])<<24 | int64(b[1])<<16 | int64(b[2])<<8 | int64(b[3])) % max
	if n < 0 {
		n = -n
	}
	return fmt.Sprintf("%06d", n), nil
}
