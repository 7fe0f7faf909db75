package db

import (
	"context"
	"time"
)

// CleanExpiredInvitations bulk-transitions pending invitations whose expiry
// has passed to the expired state. Called periodically so expiry doesn't
// depend on Accept ever being called for a given invitation.
func (q *Queries) CleanExpiredInvitations(ctx context.Context, now time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE invitations SET state = 'expired'
		WHERE state = 'pending' AND expiry_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CleanExpiredSessions deletes refresh sessions past their expiry. A session
// that has expired can never be refreshed again regardless of revoked_at, so
// there's no reuse-detection value in keeping the row around.
func (q *Queries) CleanExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM refresh_sessions WHERE expiry_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CleanStaleOtpCodes deletes OTP codes that are either already consumed or
// expired unused; either way they can never again satisfy GetActiveOtp.
func (q *Queries) CleanStaleOtpCodes(ctx context.Context, now time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM otp_codes WHERE used_at IS NOT NULL OR expiry_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
