package mocks

import (
	"context"
	"sync"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

// MockNotificationService implements domain.NotificationService interface for testing
type MockNotificationService struct {
	SendSMSFunc   func(ctx context.Context, to, message string) error
	SendEmailFunc func(ctx context.Context, msg *domain.EmailMessage) (*domain.EmailReceipt, error)

	mu     sync.Mutex
	Emails []*domain.EmailMessage
	SMS    []string
}

// NewMockNotificationService creates a new MockNotificationService with default behaviors
func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

// SendSMS records the message; no actual SMS is sent in tests
func (m *MockNotificationService) SendSMS(ctx context.Context, to, message string) error {
	m.mu.Lock()
	m.SMS = append(m.SMS, to+": "+message)
	m.mu.Unlock()
	if m.SendSMSFunc != nil {
		return m.SendSMSFunc(ctx, to, message)
	}
	return nil
}

// SendEmail records the message and accepts every recipient unless overridden
func (m *MockNotificationService) SendEmail(ctx context.Context, msg *domain.EmailMessage) (*domain.EmailReceipt, error) {
	m.mu.Lock()
	m.Emails = append(m.Emails, msg)
	m.mu.Unlock()
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, msg)
	}
	return &domain.EmailReceipt{Accepted: msg.To}, nil
}

// LastEmail returns the most recent message, or nil (test helper)
func (m *MockNotificationService) LastEmail() *domain.EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Emails) == 0 {
		return nil
	}
	return m.Emails[len(m.Emails)-1]
}

// Compile-time interface compliance verification
var _ domain.NotificationService = (*MockNotificationService)(nil)
