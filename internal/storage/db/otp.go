package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CreateOtpParams struct {
	OtpID       uuid.UUID
	UserID      uuid.UUID
	PurposeCode string
	OtpHash     string
	ExpiresAt   time.Time
}

func (q *Queries) CreateOtp(ctx context.Context, arg CreateOtpParams) (OtpCode, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO otp_codes (otp_id, user_id, purpose_code, otp_hash, expiry_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING otp_id, user_id, purpose_code, otp_hash, expiry_at, used_at, created_at`,
		arg.OtpID, arg.UserID, arg.PurposeCode, arg.OtpHash, arg.ExpiresAt)

	var o OtpCode
	err := row.Scan(&o.OtpID, &o.UserID, &o.PurposeCode, &o.OtpHash, &o.ExpiryAt, &o.UsedAt, &o.CreatedAt)
	return o, err
}

// GetActiveOtp returns the most recent unused, unexpired OTP for
// (user, purpose) — used both to verify a presented code and to support
// idempotent re-issuance within the same window.
func (q *Queries) GetActiveOtp(ctx context.Context, userID uuid.UUID, purposeCode string, now time.Time) (OtpCode, error) {
	row := q.db.QueryRow(ctx, `
		SELECT otp_id, user_id, purpose_code, otp_hash, expiry_at, used_at, created_at
		FROM otp_codes
		WHERE user_id = $1 AND purpose_code = $2 AND used_at IS NULL AND expiry_at > $3
		ORDER BY created_at DESC LIMIT 1`, userID, purposeCode, now)

	var o OtpCode
	err := row.Scan(&o.OtpID, &o.UserID, &o.PurposeCode, &o.OtpHash, &o.ExpiryAt, &o.UsedAt, &o.CreatedAt)
	return o, err
}

func (q *Queries) ConsumeOtp(ctx context.Context, otpID uuid.UUID, at time.Time) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE otp_codes SET used_at = $2
		WHERE otp_id = $1 AND used_at IS NULL`, otpID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows
	}
	return nil
}
