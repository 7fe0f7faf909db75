package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLogEmailSender_ReturnsDistinctMessageIDs(t *testing.T) {
	s := NewLogEmailSender(discardLogger())

	id1, err := s.Send(context.Background(), EmailMessage{To: "a@example.com", TenantID: uuid.New(), Template: TemplateEmailVerification})
	require.NoError(t, err)
	id2, err := s.Send(context.Background(), EmailMessage{To: "b@example.com", TenantID: uuid.New(), Template: TemplateEmailVerification})
	require.NoError(t, err)

	assert.NotEmpty(t, id1)
	assert.NotEqual(t, id1, id2)
}

func TestLogSMSSender_ReturnsMessageID(t *testing.T) {
	s := NewLogSMSSender(discardLogger())

	id, err := s.Send(context.Background(), SMSMessage{To: "+15551234567", TenantID: uuid.New(), Template: TemplateMFAEnabled})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestEmailSender_InterfaceSatisfiedByLogEmailSender(t *testing.T) {
	var _ EmailSender = (*LogEmailSender)(nil)
	var _ SMSSender = (*LogSMSSender)(nil)
}
