package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/platinummonkey/signon/pkg/observability"
)

// Audit actions
const (
	ActionSignInStarted   = "auth.sign_in.started"
	ActionSignInCompleted = "auth.sign_in.completed"
	ActionSignOut         = "auth.sign_out"
)

// Status constants
const (
	StatusSuccess   = "success"
	StatusFailure   = "failure"
	StatusCancelled = "cancelled"
)

// AuditEvent is one security-relevant sign-in or sign-out
type AuditEvent struct {
	Action       string
	Strategy     string
	UserID       string
	ProviderID   string
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

// AuditLogger writes audit events as structured log lines
type AuditLogger struct {
	logger *observability.Logger
	now    func() time.Time
}

// NewAuditLogger creates an audit logger. A nil logger discards events.
func NewAuditLogger(logger *observability.Logger) *AuditLogger {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &AuditLogger{logger: logger.WithField("audit", true), now: time.Now}
}

// LogAction records an audit event
func (al *AuditLogger) LogAction(ctx context.Context, event *AuditEvent) error {
	if event.Action == "" {
		return fmt.Errorf("action is required")
	}
	if event.Status == "" {
		return fmt.Errorf("status is required")
	}

	event.CreatedAt = al.now()

	fields := map[string]interface{}{
		"action":     event.Action,
		"strategy":   event.Strategy,
		"status":     event.Status,
		"created_at": event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if event.UserID != "" {
		fields["uid"] = event.UserID
	}
	if event.ProviderID != "" {
		fields["provider_id"] = event.ProviderID
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}

	al.logger.WithFields(fields).Info("Audit event")
	return nil
}

// auditStatus maps an operation result to an audit status
func auditStatus(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case isCancelled(err):
		return StatusCancelled
	default:
		return StatusFailure
	}
}
