package services

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

const (
	resetCodeMin  = 100000
	resetCodeSpan = 900000
)

// ResetCodeServiceImpl implements domain.ResetCodeService. Only the SHA-256
// digest of a code is ever persisted.
type ResetCodeServiceImpl struct {
	ttl time.Duration
	now func() time.Time
}

// NewResetCodeService creates a new reset code service
func NewResetCodeService(ttl time.Duration, now func() time.Time) domain.ResetCodeService {
	if now == nil {
		now = time.Now
	}
	return &ResetCodeServiceImpl{ttl: ttl, now: now}
}

// Issue implements domain.ResetCodeService
func (s *ResetCodeServiceImpl) Issue() (*domain.ResetCode, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(resetCodeSpan))
	if err != nil {
		return nil, fmt.Errorf("failed to generate reset code: %w", err)
	}
	raw := fmt.Sprintf("%06d", n.Int64()+resetCodeMin)

	return &domain.ResetCode{
		Raw:       raw,
		Hash:      HashResetCode(raw),
		ExpiresAt: s.now().Add(s.ttl),
	}, nil
}

// Validate implements domain.ResetCodeService. It never mutates the principal;
// the caller records failures and clears a consumed code.
func (s *ResetCodeServiceImpl) Validate(principal *domain.Principal, raw string) domain.ResetOutcome {
	now := s.now()
	if principal.ResetBlocked(now) {
		return domain.ResetBlocked
	}
	if principal.ResetTokenHash == "" || principal.ResetTokenExpires == nil || !now.Before(*principal.ResetTokenExpires) {
		return domain.ResetExpired
	}
	if subtle.ConstantTimeCompare([]byte(HashResetCode(raw)), []byte(principal.ResetTokenHash)) != 1 {
		return domain.ResetMismatch
	}
	return domain.ResetValid
}

// HashResetCode returns the hex SHA-256 digest of a raw code.
func HashResetCode(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
