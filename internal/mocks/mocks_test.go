package mocks_test

import (
	"context"
	"testing"
	"time"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/mocks"
)

// The in-memory defaults are relied on by the service tests, so they are
// pinned down here.
func TestMockPrincipalRepository_Defaults(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMockPrincipalRepository(domain.RoleVendor)

	p := &domain.Principal{ID: "v1", Role: domain.RoleVendor, LoginIdentifier: "shop@example.com", IsActive: true}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, &domain.Principal{ID: "v2", LoginIdentifier: "shop@example.com"}); err != domain.ErrPrincipalExists {
		t.Fatalf("expected ErrPrincipalExists, got %v", err)
	}

	found, err := repo.FindByLoginIdentifier(ctx, "shop@example.com")
	if err != nil || found.ID != "v1" {
		t.Fatalf("find: %v %+v", err, found)
	}

	// callers get copies
	found.IsActive = false
	if !repo.Get("v1").IsActive {
		t.Error("mutating a returned principal leaked into the store")
	}

	at := time.Now()
	for i := 0; i < 5; i++ {
		failure, err := repo.ReserveResetAttempt(ctx, "v1", i, 5, 30*time.Minute, at)
		if err != nil {
			t.Fatalf("reserve attempt: %v", err)
		}
		if i < 4 && failure.BlockedUntil != nil {
			t.Fatalf("blocked after %d attempts", failure.Attempts)
		}
	}
	if _, err := repo.ReserveResetAttempt(ctx, "v1", 0, 5, 30*time.Minute, at); err != domain.ErrResetAttemptRaced {
		t.Errorf("expected ErrResetAttemptRaced for a stale count, got %v", err)
	}
	if !repo.Get("v1").ResetBlocked(at.Add(time.Minute)) {
		t.Error("expected lockout after five failures")
	}

	if _, err := repo.FindByID(ctx, "missing"); err != domain.ErrPrincipalNotFound {
		t.Errorf("expected ErrPrincipalNotFound, got %v", err)
	}
}

func TestMockTokenService_RoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := mocks.NewMockTokenService()
	svc.Now = func() time.Time { return now }

	issued, err := svc.Issue(&domain.Principal{ID: "c1", Role: domain.RoleCustomer})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.Validate(issued.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.PrincipalID != "c1" || claims.Role != domain.RoleCustomer || !claims.IssuedAt.Equal(now) {
		t.Errorf("unexpected claims %+v", claims)
	}

	now = now.Add(25 * time.Hour)
	if _, err := svc.Validate(issued.Token); err != domain.ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
	if _, err := svc.Validate("garbage"); err != domain.ErrTokenMalformed {
		t.Errorf("expected ErrTokenMalformed, got %v", err)
	}
}
