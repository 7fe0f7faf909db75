package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Tenant struct {
	TenantID  pgtype.UUID
	Slug      string
	Label     string
	State     string
	CreatedAt pgtype.Timestamptz
}

type OrgNode struct {
	OrgNodeID      pgtype.UUID
	TenantID       pgtype.UUID
	TypeCode       string
	Label          string
	ParentOrgNodeID pgtype.UUID
	ActiveFlag     bool
	CreatedAt      pgtype.Timestamptz
}

type OrgNodePath struct {
	TenantID            pgtype.UUID
	AncestorOrgNodeID   pgtype.UUID
	DescendantOrgNodeID pgtype.UUID
	DepthVal            int32
}

type User struct {
	UserID       pgtype.UUID
	TenantID     pgtype.UUID
	Email        string
	DisplayName  pgtype.Text
	VerifiedFlag bool
	MfaEnabled   bool
	MfaSecret    pgtype.Text
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

type UserIdentity struct {
	IdentID      pgtype.UUID
	UserID       pgtype.UUID
	ProviderCode string
	IdentHash    string
	CreatedAt    pgtype.Timestamptz
}

type Capability struct {
	CapID     pgtype.UUID
	CapKey    string
	CreatedAt pgtype.Timestamptz
}

type Role struct {
	RoleID    pgtype.UUID
	TenantID  pgtype.UUID
	Label     string
	CreatedAt pgtype.Timestamptz
}

type RoleCapability struct {
	RoleID pgtype.UUID
	CapID  pgtype.UUID
}

type OrgAssignment struct {
	AssignmentID pgtype.UUID
	TenantID     pgtype.UUID
	UserID       pgtype.UUID
	OrgNodeID    pgtype.UUID
	RoleID       pgtype.UUID
	StartAt      pgtype.Timestamptz
	EndAt        pgtype.Timestamptz
}

type VisibilityGrant struct {
	GrantID   pgtype.UUID
	TenantID  pgtype.UUID
	UserID    pgtype.UUID
	OrgNodeID pgtype.UUID
	CreatedAt pgtype.Timestamptz
}

type Invitation struct {
	InvitationID     pgtype.UUID
	TenantID         pgtype.UUID
	Email            string
	OrgNodeID        pgtype.UUID
	RoleID           pgtype.UUID
	TokenHash        string
	State            string
	ExpiryAt         pgtype.Timestamptz
	AcceptedAt       pgtype.Timestamptz
	CreatedByUserID  pgtype.UUID
	CreatedAt        pgtype.Timestamptz
}

type RefreshSession struct {
	SessionID pgtype.UUID
	UserID    pgtype.UUID
	TokenHash string
	ExpiryAt  pgtype.Timestamptz
	RevokedAt pgtype.Timestamptz
	CreatedAt pgtype.Timestamptz
}

type OtpCode struct {
	OtpID       pgtype.UUID
	UserID      pgtype.UUID
	PurposeCode string
	OtpHash     string
	ExpiryAt    pgtype.Timestamptz
	UsedAt      pgtype.Timestamptz
	CreatedAt   pgtype.Timestamptz
}

type BackupCode struct {
	CodeID    pgtype.UUID
	UserID    pgtype.UUID
	CodeHash  string
	UsedFlag  bool
	CreatedAt pgtype.Timestamptz
}

type Service struct {
	ServiceID                pgtype.UUID
	ClientID                 string
	ClientSecretHash         string
	PreviousClientSecretHash pgtype.Text
	PreviousSecretExpiry     pgtype.Timestamptz
	SigningSecretSealed      string
	AppName                  string
	AppType                  string
	RateLimitPerMin          int32
	AllowedOrigins           []string
	EnabledFlag              bool
	CreatedAt                pgtype.Timestamptz
	UpdatedAt                pgtype.Timestamptz
}

type AuditEvent struct {
	EventID       pgtype.UUID
	TenantID      pgtype.UUID
	ActorUserID   pgtype.UUID
	EventTypeCode string
	TargetType    pgtype.Text
	TargetID      pgtype.UUID
	EventData     []byte
	IPAddress     pgtype.Text
	UserAgent     pgtype.Text
	CreatedAt     pgtype.Timestamptz
}
