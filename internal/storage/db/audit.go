package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CreateAuditEventParams struct {
	EventID       uuid.UUID
	TenantID      *uuid.UUID
	ActorUserID   *uuid.UUID
	EventTypeCode string
	TargetType    string
	TargetID      *uuid.UUID
	EventData     []byte
	IPAddress     string
	UserAgent     string
}

func (q *Queries) CreateAuditEvent(ctx context.Context, arg CreateAuditEventParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO audit_events (event_id, tenant_id, actor_user_id, event_type_code, target_type, target_id,
			event_data, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		arg.EventID, nullableUUID(arg.TenantID), nullableUUID(arg.ActorUserID), arg.EventTypeCode,
		nullableText(arg.TargetType), nullableUUID(arg.TargetID), arg.EventData,
		nullableText(arg.IPAddress), nullableText(arg.UserAgent))
	return err
}

type ListEventsFilter struct {
	TenantID *uuid.UUID
	Limit    int32
	Offset   int32
}

func (q *Queries) ListEvents(ctx context.Context, f ListEventsFilter) ([]AuditEvent, error) {
	rows, err := q.db.Query(ctx, `
		SELECT event_id, tenant_id, actor_user_id, event_type_code, target_type, target_id,
			event_data, ip_address, user_agent, created_at
		FROM audit_events
		WHERE ($1::uuid IS NULL OR tenant_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, nullableUUID(f.TenantID), f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditEvent
	for rows.Next() {
		var e AuditEvent
		if err := rows.Scan(&e.EventID, &e.TenantID, &e.ActorUserID, &e.EventTypeCode, &e.TargetType, &e.TargetID,
			&e.EventData, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullableUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

func nullableText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
