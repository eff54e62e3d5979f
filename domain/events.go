package domain

import (
	"context"
	"time"
)

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Account lifecycle events
	PrincipalSignupEvent      AuditEventType = "PRINCIPAL_SIGNED_UP"
	PrincipalDeactivatedEvent AuditEventType = "PRINCIPAL_DEACTIVATED"
	PrincipalPurgedEvent      AuditEventType = "PRINCIPAL_PURGED"
	ProfileUpdatedEvent       AuditEventType = "PROFILE_UPDATED"

	// Authentication events
	LoginEvent        AuditEventType = "LOGIN"
	LoginFailureEvent AuditEventType = "LOGIN_FAILED"

	// Credential events
	PasswordChangedEvent      AuditEventType = "PASSWORD_CHANGED"
	PasswordResetRequestEvent AuditEventType = "PASSWORD_RESET_REQUESTED"
	PasswordResetEvent        AuditEventType = "PASSWORD_RESET"
	PasswordResetFailureEvent AuditEventType = "PASSWORD_RESET_FAILED"
	PasswordResetLockedEvent  AuditEventType = "PASSWORD_RESET_LOCKED"
)

// AuditEvent represents a business event that occurred in the system
type AuditEvent struct {
	EventType   AuditEventType         `json:"event_type"`
	PrincipalID string                 `json:"principal_id,omitempty"`
	Role        Role                   `json:"role"`
	Email       string                 `json:"email,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	IPAddress   string                 `json:"ip_address,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	Success     bool                   `json:"success"`
}

// AuditLogger records audit events. Implementations must not fail the calling operation.
type AuditLogger interface {
	LogEvent(ctx context.Context, event *AuditEvent)
}

// NewAuditEvent creates a new audit event with common fields populated
func NewAuditEvent(eventType AuditEventType, role Role, principalID string, at time.Time) *AuditEvent {
	return &AuditEvent{
		EventType:   eventType,
		PrincipalID: principalID,
		Role:        role,
		Timestamp:   at.UTC(),
		Metadata:    make(map[string]interface{}),
		Success:     true,
	}
}

// WithError sets error information on the audit event
func (e *AuditEvent) WithError(err error) *AuditEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithEmail sets the email field
func (e *AuditEvent) WithEmail(email string) *AuditEvent {
	e.Email = email
	return e
}

// WithIP sets the client address
func (e *AuditEvent) WithIP(ip string) *AuditEvent {
	e.IPAddress = ip
	return e
}

// WithMetadata adds metadata to the event
func (e *AuditEvent) WithMetadata(key string, value interface{}) *AuditEvent {
	e.Metadata[key] = value
	return e
}
