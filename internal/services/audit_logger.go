package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

// AuditLoggerImpl writes audit events to the structured log and, when a
// publisher is configured, to the message broker.
type AuditLoggerImpl struct {
	log           *slog.Logger
	publisher     domain.EventPublisher
	subjectPrefix string
}

// NewAuditLogger creates a new audit logger. publisher may be nil.
func NewAuditLogger(log *slog.Logger, publisher domain.EventPublisher, subjectPrefix string) domain.AuditLogger {
	return &AuditLoggerImpl{log: log, publisher: publisher, subjectPrefix: subjectPrefix}
}

// LogEvent implements domain.AuditLogger
func (a *AuditLoggerImpl) LogEvent(ctx context.Context, event *domain.AuditEvent) {
	attrs := []any{
		"event_type", event.EventType,
		"role", event.Role,
		"success", event.Success,
	}
	if event.PrincipalID != "" {
		attrs = append(attrs, "principal_id", event.PrincipalID)
	}
	if event.IPAddress != "" {
		attrs = append(attrs, "ip", event.IPAddress)
	}
	if event.ErrorMsg != "" {
		attrs = append(attrs, "error", event.ErrorMsg)
	}
	a.log.InfoContext(ctx, "audit", attrs...)

	if a.publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		a.log.ErrorContext(ctx, "failed to encode audit event", "error", err)
		return
	}
	if err := a.publisher.Publish(ctx, a.subject(event.EventType), payload); err != nil {
		a.log.WarnContext(ctx, "failed to publish audit event", "event_type", event.EventType, "error", err)
	}
}

func (a *AuditLoggerImpl) subject(t domain.AuditEventType) string {
	name := strings.ToLower(string(t))
	if a.subjectPrefix == "" {
		return name
	}
	return a.subjectPrefix + "." + name
}
