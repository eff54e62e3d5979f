package mocks

import (
	"context"
	"time"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	SignupFunc            func(ctx context.Context, in domain.SignupInput) (*domain.AuthResult, error)
	SocialSignupFunc      func(ctx context.Context, identity *domain.ExternalIdentity, clientIP string) (*domain.AuthResult, error)
	LoginFunc             func(ctx context.Context, role domain.Role, in domain.LoginInput) (*domain.AuthResult, error)
	SocialLoginFunc       func(ctx context.Context, identity *domain.ExternalIdentity, clientIP string) (*domain.AuthResult, error)
	RequestResetFunc      func(ctx context.Context, role domain.Role, email string) error
	ResetPasswordFunc     func(ctx context.Context, role domain.Role, in domain.ResetInput) error
	VerifyTokenFunc       func(ctx context.Context, token string) (*domain.SafeProfile, error)
	GetProfileFunc        func(ctx context.Context, token string) (*domain.SafeProfile, error)
	UpdateProfileFunc     func(ctx context.Context, token string, update domain.ProfileUpdate) (*domain.SafeProfile, error)
	ChangePasswordFunc    func(ctx context.Context, token, currentPassword, newPassword string) error
	DeactivateAccountFunc func(ctx context.Context, token string) error
	PurgeCustomerFunc     func(ctx context.Context, id string) error
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

func mockProfile(role domain.Role, email string) *domain.SafeProfile {
	now := time.Now()
	profile, _ := domain.EmptyProfile(role)
	return &domain.SafeProfile{
		ID:        "00000000-0000-0000-0000-000000000001",
		Role:      role,
		Email:     email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		Profile:   profile,
	}
}

func mockResult(role domain.Role, email string) *domain.AuthResult {
	return &domain.AuthResult{
		Principal: mockProfile(role, email),
		Token:     "mock_token",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
}

func (m *MockAuthService) Signup(ctx context.Context, in domain.SignupInput) (*domain.AuthResult, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, in)
	}
	return mockResult(in.Role, in.Email), nil
}

func (m *MockAuthService) SocialSignup(ctx context.Context, identity *domain.ExternalIdentity, clientIP string) (*domain.AuthResult, error) {
	if m.SocialSignupFunc != nil {
		return m.SocialSignupFunc(ctx, identity, clientIP)
	}
	return mockResult(domain.RoleCustomer, identity.Email), nil
}

func (m *MockAuthService) Login(ctx context.Context, role domain.Role, in domain.LoginInput) (*domain.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, role, in)
	}
	return mockResult(role, in.Email), nil
}

func (m *MockAuthService) SocialLogin(ctx context.Context, identity *domain.ExternalIdentity, clientIP string) (*domain.AuthResult, error) {
	if m.SocialLoginFunc != nil {
		return m.SocialLoginFunc(ctx, identity, clientIP)
	}
	return mockResult(domain.RoleCustomer, identity.Email), nil
}

func (m *MockAuthService) RequestReset(ctx context.Context, role domain.Role, email string) error {
	if m.RequestResetFunc != nil {
		return m.RequestResetFunc(ctx, role, email)
	}
	return nil
}

func (m *MockAuthService) ResetPassword(ctx context.Context, role domain.Role, in domain.ResetInput) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, role, in)
	}
	return nil
}

func (m *MockAuthService) VerifyToken(ctx context.Context, token string) (*domain.SafeProfile, error) {
	if m.VerifyTokenFunc != nil {
		return m.VerifyTokenFunc(ctx, token)
	}
	return mockProfile(domain.RoleCustomer, "user@example.com"), nil
}

func (m *MockAuthService) GetProfile(ctx context.Context, token string) (*domain.SafeProfile, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, token)
	}
	return mockProfile(domain.RoleCustomer, "user@example.com"), nil
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (*domain.SafeProfile, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, token, update)
	}
	p := mockProfile(domain.RoleCustomer, "user@example.com")
	if update.Profile != nil {
		p.Role = update.Profile.Role()
		p.Profile = update.Profile
	}
	return p, nil
}

func (m *MockAuthService) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, token, currentPassword, newPassword)
	}
	return nil
}

func (m *MockAuthService) DeactivateAccount(ctx context.Context, token string) error {
	if m.DeactivateAccountFunc != nil {
		return m.DeactivateAccountFunc(ctx, token)
	}
	return nil
}

func (m *MockAuthService) PurgeCustomer(ctx context.Context, id string) error {
	if m.PurgeCustomerFunc != nil {
		return m.PurgeCustomerFunc(ctx, id)
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.AuthService = (*MockAuthService)(nil)
