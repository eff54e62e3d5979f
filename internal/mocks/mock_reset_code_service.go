package mocks

import (
	"time"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

// MockResetCodeService implements domain.ResetCodeService interface for testing
type MockResetCodeService struct {
	IssueFunc    func() (*domain.ResetCode, error)
	ValidateFunc func(principal *domain.Principal, raw string) domain.ResetOutcome
}

// NewMockResetCodeService creates a new MockResetCodeService with default behaviors
func NewMockResetCodeService() *MockResetCodeService {
	return &MockResetCodeService{}
}

// Issue returns the fixed code 123456 unless overridden
func (m *MockResetCodeService) Issue() (*domain.ResetCode, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc()
	}
	return &domain.ResetCode{
		Raw:       "123456",
		Hash:      "hashed_123456",
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

// Validate compares against the "hashed_" convention used by Issue
func (m *MockResetCodeService) Validate(principal *domain.Principal, raw string) domain.ResetOutcome {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(principal, raw)
	}
	now := time.Now()
	switch {
	case principal.ResetBlocked(now):
		return domain.ResetBlocked
	case principal.ResetTokenHash == "" || principal.ResetTokenExpires == nil || !now.Before(*principal.ResetTokenExpires):
		return domain.ResetExpired
	case principal.ResetTokenHash != "hashed_"+raw:
		return domain.ResetMismatch
	}
	return domain.ResetValid
}

// Compile-time interface compliance verification
var _ domain.ResetCodeService = (*MockResetCodeService)(nil)
