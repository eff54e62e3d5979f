package mocks

import (
	"fmt"
	"strings"
	"time"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

// MockTokenService implements domain.TokenService interface for testing.
// Default tokens have the form "token|<role>|<id>|<issued unix ms>".
type MockTokenService struct {
	IssueFunc    func(principal *domain.Principal) (*domain.IssuedToken, error)
	ValidateFunc func(token string) (*domain.TokenClaims, error)

	// Now is used by the default Issue; defaults to time.Now.
	Now func() time.Time
	TTL time.Duration
}

// NewMockTokenService creates a new MockTokenService with default behaviors
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{Now: time.Now, TTL: 24 * time.Hour}
}

func (m *MockTokenService) Issue(principal *domain.Principal) (*domain.IssuedToken, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(principal)
	}
	now := m.Now()
	return &domain.IssuedToken{
		Token:     fmt.Sprintf("token|%s|%s|%d", principal.Role, principal.ID, now.UnixMilli()),
		ExpiresAt: now.Add(m.TTL),
	}, nil
}

func (m *MockTokenService) Validate(token string) (*domain.TokenClaims, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(token)
	}
	parts := strings.Split(token, "|")
	if len(parts) != 4 || parts[0] != "token" {
		return nil, domain.ErrTokenMalformed
	}
	role := domain.Role(parts[1])
	if !role.Valid() {
		return nil, domain.ErrUnknownRole
	}
	var ms int64
	if _, err := fmt.Sscanf(parts[3], "%d", &ms); err != nil {
		return nil, domain.ErrTokenMalformed
	}
	issued := time.UnixMilli(ms)
	if !m.Now().Before(issued.Add(m.TTL)) {
		return nil, domain.ErrTokenExpired
	}
	return &domain.TokenClaims{
		TokenID:     "jti-" + parts[3],
		PrincipalID: parts[2],
		Role:        role,
		IssuedAt:    issued,
		ExpiresAt:   issued.Add(m.TTL),
	}, nil
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)
