package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

// MockRateLimitRepository implements domain.RateLimitRepository for testing.
// The default behavior counts hits per key and never expires them.
type MockRateLimitRepository struct {
	HitFunc   func(ctx context.Context, key string, window time.Duration) (int64, error)
	ResetFunc func(ctx context.Context, key string) error

	mu     sync.Mutex
	counts map[string]int64
}

// NewMockRateLimitRepository creates a new MockRateLimitRepository with default behaviors
func NewMockRateLimitRepository() *MockRateLimitRepository {
	return &MockRateLimitRepository{counts: make(map[string]int64)}
}

func (m *MockRateLimitRepository) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	if m.HitFunc != nil {
		return m.HitFunc(ctx, key, window)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

func (m *MockRateLimitRepository) Reset(ctx context.Context, key string) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counts, key)
	return nil
}

// Compile-time interface compliance verification
var _ domain.RateLimitRepository = (*MockRateLimitRepository)(nil)
