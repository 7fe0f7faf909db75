package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CreateServiceParams struct {
	ServiceID           uuid.UUID
	ClientID            string
	ClientSecretHash    string
	SigningSecretSealed string
	AppName             string
	AppType             string
	RateLimitPerMin     int32
	AllowedOrigins      []string
}

func (q *Queries) CreateService(ctx context.Context, arg CreateServiceParams) (Service, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO services (service_id, client_id, client_secret_hash, signing_secret_sealed,
			app_name, app_type, rate_limit_per_min, allowed_origins, enabled_flag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
		RETURNING service_id, client_id, client_secret_hash, previous_client_secret_hash, previous_secret_expiry,
			signing_secret_sealed, app_name, app_type, rate_limit_per_min, allowed_origins, enabled_flag, created_at, updated_at`,
		arg.ServiceID, arg.ClientID, arg.ClientSecretHash, arg.SigningSecretSealed,
		arg.AppName, arg.AppType, arg.RateLimitPerMin, arg.AllowedOrigins)

	var s Service
	err := scanService(row, &s)
	return s, err
}

func (q *Queries) GetServiceByClientID(ctx context.Context, clientID string) (Service, error) {
	row := q.db.QueryRow(ctx, `
		SELECT service_id, client_id, client_secret_hash, previous_client_secret_hash, previous_secret_expiry,
			signing_secret_sealed, app_name, app_type, rate_limit_per_min, allowed_origins, enabled_flag, created_at, updated_at
		FROM services WHERE client_id = $1`, clientID)

	var s Service
	err := scanService(row, &s)
	return s, err
}

// RotateSecret moves the current client_secret_hash to previous (with a
// grace expiry) and installs a new current hash, the zero-downtime rotation
// the data model's `previous_*` columns exist for.
func (q *Queries) RotateSecret(ctx context.Context, clientID, newSecretHash string, graceExpiry time.Time) error {
	_, err := q.db.Exec(ctx, `
		UPDATE services SET
			previous_client_secret_hash = client_secret_hash,
			previous_secret_expiry = $2,
			client_secret_hash = $3,
			updated_at = now()
		WHERE client_id = $1`, clientID, graceExpiry, newSecretHash)
	return err
}

func (q *Queries) RevokeService(ctx context.Context, clientID string) error {
	_, err := q.db.Exec(ctx, `UPDATE services SET enabled_flag = FALSE, updated_at = now() WHERE client_id = $1`, clientID)
	return err
}

func scanService(row interface{ Scan(...interface{}) error }, s *Service) error {
	return row.Scan(&s.ServiceID, &s.ClientID, &s.ClientSecretHash, &s.PreviousClientSecretHash, &s.PreviousSecretExpiry,
		&s.SigningSecretSealed, &s.AppName, &s.AppType, &s.RateLimitPerMin, &s.AllowedOrigins, &s.EnabledFlag, &s.CreatedAt, &s.UpdatedAt)
}
