package mocks

import (
	"context"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

// MockIdentityVerifier implements domain.IdentityVerifier interface for testing
type MockIdentityVerifier struct {
	VerifyIdentityFunc func(ctx context.Context, assertion string) (*domain.ExternalIdentity, error)
}

// NewMockIdentityVerifier creates a new MockIdentityVerifier with default behaviors
func NewMockIdentityVerifier() *MockIdentityVerifier {
	return &MockIdentityVerifier{}
}

// VerifyIdentity treats the assertion as the provider uid by default
func (m *MockIdentityVerifier) VerifyIdentity(ctx context.Context, assertion string) (*domain.ExternalIdentity, error) {
	if m.VerifyIdentityFunc != nil {
		return m.VerifyIdentityFunc(ctx, assertion)
	}
	if assertion == "" {
		return nil, domain.ErrTokenMalformed
	}
	return &domain.ExternalIdentity{
		UID:           assertion,
		Provider:      domain.ProviderGoogle,
		Email:         assertion + "@example.com",
		FullName:      "Social User",
		EmailVerified: true,
	}, nil
}

// Compile-time interface compliance verification
var _ domain.IdentityVerifier = (*MockIdentityVerifier)(nil)
