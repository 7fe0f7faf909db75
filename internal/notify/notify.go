// Package notify defines the outbound notification contracts used by the
// identity and MFA flows. Actual SMTP/SMS transport is out of scope; only
// the interfaces and a logging development implementation live here.
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Template restricts callers to a fixed, reviewed set of message kinds,
// the same way the email templates in the source system are whitelisted
// rather than accepting a free-form subject/body.
type Template string

const (
	TemplateEmailVerification Template = "email_verification"
	TemplatePasswordReset     Template = "password_reset"
	TemplateMFAEnabled        Template = "mfa_enabled"
	TemplateMFADisabled       Template = "mfa_disabled"
	TemplateRefreshReuse      Template = "refresh_reuse_detected"
	TemplateInvitation        Template = "invitation"
)

type EmailMessage struct {
	To       string
	TenantID uuid.UUID
	Template Template
	Data     map[string]any
}

// EmailSender delivers a templated transactional email and returns a
// provider message ID for audit correlation.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) (providerMessageID string, err error)
}

type SMSMessage struct {
	To       string
	TenantID uuid.UUID
	Template Template
	Data     map[string]any
}

// SMSSender delivers a templated SMS, e.g. for MFA backup-code delivery.
type SMSSender interface {
	Send(ctx context.Context, msg SMSMessage) (providerMessageID string, err error)
}

// LogEmailSender is a development EmailSender that logs instead of
// delivering, so local and test environments never need live credentials.
type LogEmailSender struct {
	log *slog.Logger
}

func NewLogEmailSender(log *slog.Logger) *LogEmailSender {
	if log == nil {
		log = slog.Default()
	}
	return &LogEmailSender{log: log}
}

func (s *LogEmailSender) Send(ctx context.Context, msg EmailMessage) (string, error) {
	id := uuid.NewString()
	s.log.Info("notify: email (dev sender)", "message_id", id, "to", msg.To, "template", msg.Template, "tenant_id", msg.TenantID)
	return id, nil
}

// LogSMSSender is the SMS counterpart to LogEmailSender.
type LogSMSSender struct {
	log *slog.Logger
}

func NewLogSMSSender(log *slog.Logger) *LogSMSSender {
	if log == nil {
		log = slog.Default()
	}
	return &LogSMSSender{log: log}
}

func (s *LogSMSSender) Send(ctx context.Context, msg SMSMessage) (string, error) {
	id := uuid.NewString()
	s.log.Info("notify: sms (dev sender)", "message_id", id, "to", msg.To, "template", msg.Template, "tenant_id", msg.TenantID)
	return id, nil
}
