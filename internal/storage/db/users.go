package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CreateUserParams struct {
	UserID      uuid.UUID
	TenantID    uuid.UUID
	Email       string
	DisplayName string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	var displayName pgtype.Text
	if arg.DisplayName != "" {
		displayName = pgtype.Text{String: arg.DisplayName, Valid: true}
	}

	row := q.db.QueryRow(ctx, `
		INSERT INTO users (user_id, tenant_id, email, display_name, verified_flag, mfa_enabled)
		VALUES ($1, $2, lower($3), $4, FALSE, FALSE)
		RETURNING user_id, tenant_id, email, display_name, verified_flag, mfa_enabled, mfa_secret, created_at, updated_at`,
		arg.UserID, arg.TenantID, arg.Email, displayName)

	var u User
	err := row.Scan(&u.UserID, &u.TenantID, &u.Email, &u.DisplayName, &u.VerifiedFlag, &u.MfaEnabled, &u.MfaSecret, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, tenantID uuid.UUID, email string) (User, error) {
	row := q.db.QueryRow(ctx, `
		SELECT user_id, tenant_id, email, display_name, verified_flag, mfa_enabled, mfa_secret, created_at, updated_at
		FROM users WHERE tenant_id = $1 AND email = lower($2)`, tenantID, email)

	var u User
	err := row.Scan(&u.UserID, &u.TenantID, &u.Email, &u.DisplayName, &u.VerifiedFlag, &u.MfaEnabled, &u.MfaSecret, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (q *Queries) GetUserByID(ctx context.Context, tenantID, userID uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, `
		SELECT user_id, tenant_id, email, display_name, verified_flag, mfa_enabled, mfa_secret, created_at, updated_at
		FROM users WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID)

	var u User
	err := row.Scan(&u.UserID, &u.TenantID, &u.Email, &u.DisplayName, &u.VerifiedFlag, &u.MfaEnabled, &u.MfaSecret, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetUserByIDAnyTenant is used by token validation, where the token carries
// no tenant and the tenant is resolved from the user row this returns.
func (q *Queries) GetUserByIDAnyTenant(ctx context.Context, userID uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, `
		SELECT user_id, tenant_id, email, display_name, verified_flag, mfa_enabled, mfa_secret, created_at, updated_at
		FROM users WHERE user_id = $1`, userID)

	var u User
	err := row.Scan(&u.UserID, &u.TenantID, &u.Email, &u.DisplayName, &u.VerifiedFlag, &u.MfaEnabled, &u.MfaSecret, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (q *Queries) MarkUserVerified(ctx context.Context, userID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `UPDATE users SET verified_flag = TRUE, updated_at = now() WHERE user_id = $1`, userID)
	return err
}

func (q *Queries) SetUserMFA(ctx context.Context, userID uuid.UUID, secret string, enabled bool) error {
	_, err := q.db.Exec(ctx, `
		UPDATE users SET mfa_secret = $2, mfa_enabled = $3, updated_at = now()
		WHERE user_id = $1`, userID, secret, enabled)
	return err
}

type AddIdentityParams struct {
	IdentID      uuid.UUID
	UserID       uuid.UUID
	ProviderCode string
	IdentHash    string
}

func (q *Queries) AddIdentity(ctx context.Context, arg AddIdentityParams) (UserIdentity, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO user_identities (ident_id, user_id, provider_code, ident_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, provider_code) DO UPDATE SET ident_hash = EXCLUDED.ident_hash
		RETURNING ident_id, user_id, provider_code, ident_hash, created_at`,
		arg.IdentID, arg.UserID, arg.ProviderCode, arg.IdentHash)

	var i UserIdentity
	err := row.Scan(&i.IdentID, &i.UserID, &i.ProviderCode, &i.IdentHash, &i.CreatedAt)
	return i, err
}

func (q *Queries) GetIdentity(ctx context.Context, userID uuid.UUID, providerCode string) (UserIdentity, error) {
	row := q.db.QueryRow(ctx, `
		SELECT ident_id, user_id, provider_code, ident_hash, created_at
		FROM user_identities WHERE user_id = $1 AND provider_code = $2`, userID, providerCode)

	var i UserIdentity
	err := row.Scan(&i.IdentID, &i.UserID, &i.ProviderCode, &i.IdentHash, &i.CreatedAt)
	return i, err
}

func (q *Queries) FindUserBySocialSubject(ctx context.Context, tenantID uuid.UUID, providerCode, subject string) (User, error) {
	row := q.db.QueryRow(ctx, `
		SELECT u.user_id, u.tenant_id, u.email, u.display_name, u.verified_flag, u.mfa_enabled, u.mfa_secret, u.created_at, u.updated_at
		FROM users u
		JOIN user_identities i ON i.user_id = u.user_id
		WHERE u.tenant_id = $1 AND i.provider_code = $2 AND i.ident_hash = $3`, tenantID, providerCode, subject)

	var u User
	err := row.Scan(&u.UserID, &u.TenantID, &u.Email, &u.DisplayName, &u.VerifiedFlag, &u.MfaEnabled, &u.MfaSecret, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (q *Queries) CreateBackupCode(ctx context.Context, codeID, userID uuid.UUID, codeHash string) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO backup_codes (code_id, user_id, code_hash, used_flag)
		VALUES ($1, $2, $3, FALSE)`, codeID, userID, codeHash)
	return err
}

func (q *Queries) DeleteBackupCodes(ctx context.Context, userID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM backup_codes WHERE user_id = $1`, userID)
	return err
}

// ConsumeBackupCode marks the matching, unused backup code used and reports
// whether one was found — the caller treats "not found" as an invalid code.
func (q *Queries) ConsumeBackupCode(ctx context.Context, userID uuid.UUID, codeHash string) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE backup_codes SET used_flag = TRUE
		WHERE user_id = $1 AND code_hash = $2 AND used_flag = FALSE`, userID, codeHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
