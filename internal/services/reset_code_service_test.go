package services

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

func TestResetCodeServiceImpl_Issue(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := NewResetCodeService(15*time.Minute, func() time.Time { return now })
	sixDigits := regexp.MustCompile(`^[1-9][0-9]{5}$`)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := svc.Issue()
		require.NoError(t, err)
		assert.Regexp(t, sixDigits, code.Raw)
		assert.Equal(t, HashResetCode(code.Raw), code.Hash)
		assert.NotEqual(t, code.Raw, code.Hash)
		assert.Len(t, code.Hash, 64)
		assert.Equal(t, now.Add(15*time.Minute), code.ExpiresAt)
		seen[code.Raw] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestResetCodeServiceImpl_Validate(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := NewResetCodeService(15*time.Minute, func() time.Time { return now })

	future := now.Add(10 * time.Minute)
	past := now.Add(-time.Second)
	blockedUntil := now.Add(20 * time.Minute)
	blockExpired := now.Add(-time.Minute)
	hash := HashResetCode("482913")

	tests := []struct {
		name      string
		principal *domain.Principal
		code      string
		want      domain.ResetOutcome
	}{
		{
			name:      "valid",
			principal: &domain.Principal{ResetTokenHash: hash, ResetTokenExpires: &future},
			code:      "482913",
			want:      domain.ResetValid,
		},
		{
			name:      "mismatch",
			principal: &domain.Principal{ResetTokenHash: hash, ResetTokenExpires: &future},
			code:      "482914",
			want:      domain.ResetMismatch,
		},
		{
			name:      "expired even when correct",
			principal: &domain.Principal{ResetTokenHash: hash, ResetTokenExpires: &past},
			code:      "482913",
			want:      domain.ResetExpired,
		},
		{
			name:      "no code on record",
			principal: &domain.Principal{},
			code:      "482913",
			want:      domain.ResetExpired,
		},
		{
			name:      "blocked even when correct",
			principal: &domain.Principal{ResetTokenHash: hash, ResetTokenExpires: &future, ResetBlockedUntil: &blockedUntil},
			code:      "482913",
			want:      domain.ResetBlocked,
		},
		{
			name:      "block elapsed",
			principal: &domain.Principal{ResetTokenHash: hash, ResetTokenExpires: &future, ResetBlockedUntil: &blockExpired},
			code:      "482913",
			want:      domain.ResetValid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.Validate(tt.principal, tt.code))
		})
	}
}
