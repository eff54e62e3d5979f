package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

// MockPrincipalRepository implements domain.PrincipalRepository for testing.
// Without overrides it behaves like a real table, keyed by ID with a unique
// login identifier.
type MockPrincipalRepository struct {
	CreateFunc                func(ctx context.Context, principal *domain.Principal) error
	FindByIDFunc              func(ctx context.Context, id string) (*domain.Principal, error)
	FindByLoginIdentifierFunc func(ctx context.Context, identifier string) (*domain.Principal, error)
	FindByExternalUIDFunc     func(ctx context.Context, uid string) (*domain.Principal, error)
	UpdateProfileFunc         func(ctx context.Context, id string, profile domain.Profile) error
	UpdateSecretFunc          func(ctx context.Context, id, secretHash string, changedAt time.Time) error
	CompleteResetFunc         func(ctx context.Context, id, codeHash, secretHash string, changedAt time.Time) error
	SaveResetCodeFunc         func(ctx context.Context, id, codeHash string, expiresAt time.Time) error
	ReserveResetAttemptFunc   func(ctx context.Context, id string, seen, maxAttempts int, blockFor time.Duration, at time.Time) (*domain.ResetFailure, error)
	TouchLoginFunc            func(ctx context.Context, id string, at time.Time) error
	DeactivateFunc            func(ctx context.Context, id string, at time.Time) error
	DeleteFunc                func(ctx context.Context, id string) error

	desc domain.RoleDescriptor
	mu   sync.Mutex
	rows map[string]*domain.Principal
}

// NewMockPrincipalRepository creates an empty repository for role.
func NewMockPrincipalRepository(role domain.Role) *MockPrincipalRepository {
	desc, _ := domain.DescriptorFor(role)
	return &MockPrincipalRepository{desc: desc, rows: make(map[string]*domain.Principal)}
}

// Seed stores principals directly (test helper)
func (m *MockPrincipalRepository) Seed(principals ...*domain.Principal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range principals {
		m.rows[p.ID] = clonePrincipal(p)
	}
}

// Get returns the stored copy of a principal, or nil (test helper)
func (m *MockPrincipalRepository) Get(id string) *domain.Principal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.rows[id]; ok {
		return clonePrincipal(p)
	}
	return nil
}

// Count returns the number of stored principals (test helper)
func (m *MockPrincipalRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *MockPrincipalRepository) Descriptor() domain.RoleDescriptor { return m.desc }

func (m *MockPrincipalRepository) Create(ctx context.Context, principal *domain.Principal) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, principal)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.LoginIdentifier == principal.LoginIdentifier {
			return domain.ErrPrincipalExists
		}
		if principal.ExternalUID != "" && p.ExternalUID == principal.ExternalUID {
			return domain.ErrPrincipalExists
		}
	}
	m.rows[principal.ID] = clonePrincipal(principal)
	return nil
}

func (m *MockPrincipalRepository) FindByID(ctx context.Context, id string) (*domain.Principal, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return m.find(func(p *domain.Principal) bool { return p.ID == id })
}

func (m *MockPrincipalRepository) FindByLoginIdentifier(ctx context.Context, identifier string) (*domain.Principal, error) {
	if m.FindByLoginIdentifierFunc != nil {
		return m.FindByLoginIdentifierFunc(ctx, identifier)
	}
	return m.find(func(p *domain.Principal) bool { return p.LoginIdentifier == identifier })
}

func (m *MockPrincipalRepository) FindByExternalUID(ctx context.Context, uid string) (*domain.Principal, error) {
	if m.FindByExternalUIDFunc != nil {
		return m.FindByExternalUIDFunc(ctx, uid)
	}
	if uid == "" {
		return nil, domain.ErrPrincipalNotFound
	}
	return m.find(func(p *domain.Principal) bool { return p.ExternalUID == uid })
}

func (m *MockPrincipalRepository) UpdateProfile(ctx context.Context, id string, profile domain.Profile) error {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, profile)
	}
	return m.mutate(id, func(p *domain.Principal) { p.Profile = profile })
}

func (m *MockPrincipalRepository) UpdateSecret(ctx context.Context, id, secretHash string, changedAt time.Time) error {
	if m.UpdateSecretFunc != nil {
		return m.UpdateSecretFunc(ctx, id, secretHash, changedAt)
	}
	return m.mutate(id, func(p *domain.Principal) {
		p.SecretHash = secretHash
		p.PasswordChangedAt = &changedAt
		p.ResetTokenHash = ""
		p.ResetTokenExpires = nil
	})
}

func (m *MockPrincipalRepository) CompleteReset(ctx context.Context, id, codeHash, secretHash string, changedAt time.Time) error {
	if m.CompleteResetFunc != nil {
		return m.CompleteResetFunc(ctx, id, codeHash, secretHash, changedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return domain.ErrPrincipalNotFound
	}
	if codeHash == "" || p.ResetTokenHash != codeHash {
		return domain.ErrResetCodeExpired
	}
	p.SecretHash = secretHash
	p.PasswordChangedAt = &changedAt
	p.ResetTokenHash = ""
	p.ResetTokenExpires = nil
	p.InvalidResetAttempts = 0
	p.ResetBlockedUntil = nil
	return nil
}

func (m *MockPrincipalRepository) SaveResetCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error {
	if m.SaveResetCodeFunc != nil {
		return m.SaveResetCodeFunc(ctx, id, codeHash, expiresAt)
	}
	return m.mutate(id, func(p *domain.Principal) {
		p.ResetTokenHash = codeHash
		p.ResetTokenExpires = &expiresAt
	})
}

func (m *MockPrincipalRepository) ReserveResetAttempt(ctx context.Context, id string, seen, maxAttempts int, blockFor time.Duration, at time.Time) (*domain.ResetFailure, error) {
	if m.ReserveResetAttemptFunc != nil {
		return m.ReserveResetAttemptFunc(ctx, id, seen, maxAttempts, blockFor, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	if p.InvalidResetAttempts != seen {
		return nil, domain.ErrResetAttemptRaced
	}
	p.InvalidResetAttempts = seen + 1
	failure := domain.ResetFailure{Attempts: p.InvalidResetAttempts}
	if p.InvalidResetAttempts >= maxAttempts {
		until := at.Add(blockFor)
		p.ResetBlockedUntil = &until
		failure.BlockedUntil = &until
	}
	return &failure, nil
}

func (m *MockPrincipalRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	if m.TouchLoginFunc != nil {
		return m.TouchLoginFunc(ctx, id, at)
	}
	return m.mutate(id, func(p *domain.Principal) { p.LastLoginAt = &at })
}

func (m *MockPrincipalRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id, at)
	}
	return m.mutate(id, func(p *domain.Principal) {
		p.IsActive = false
		p.DeactivatedAt = &at
	})
}

func (m *MockPrincipalRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.ErrPrincipalNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *MockPrincipalRepository) find(match func(*domain.Principal) bool) (*domain.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if match(p) {
			return clonePrincipal(p), nil
		}
	}
	return nil, domain.ErrPrincipalNotFound
}

func (m *MockPrincipalRepository) mutate(id string, fn func(*domain.Principal)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return domain.ErrPrincipalNotFound
	}
	fn(p)
	return nil
}

func clonePrincipal(p *domain.Principal) *domain.Principal {
	c := *p
	return &c
}

// Compile-time interface compliance verification
var _ domain.PrincipalRepository = (*MockPrincipalRepository)(nil)

// MockPrincipalStore implements domain.PrincipalStore with one mock repository per role.
type MockPrincipalStore struct {
	ForRoleFunc func(role domain.Role) (domain.PrincipalRepository, error)
	Repos       map[domain.Role]*MockPrincipalRepository
}

// NewMockPrincipalStore creates a store with an empty repository for every role.
func NewMockPrincipalStore() *MockPrincipalStore {
	s := &MockPrincipalStore{Repos: make(map[domain.Role]*MockPrincipalRepository)}
	for _, role := range domain.Roles() {
		s.Repos[role] = NewMockPrincipalRepository(role)
	}
	return s
}

func (s *MockPrincipalStore) ForRole(role domain.Role) (domain.PrincipalRepository, error) {
	if s.ForRoleFunc != nil {
		return s.ForRoleFunc(role)
	}
	repo, ok := s.Repos[role]
	if !ok {
		return nil, domain.ErrUnknownRole
	}
	return repo, nil
}

// Compile-time interface compliance verification
var _ domain.PrincipalStore = (*MockPrincipalStore)(nil)
