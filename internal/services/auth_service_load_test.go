package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

// TestSignupConcurrency races signups for one address; the store's uniqueness
// check must leave exactly one account.
func TestSignupConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping load test in short mode")
	}

	env := newAuthTestEnv(t)
	concurrency := 20

	in := validSignup(t, domain.RoleCustomer, "race@example.com")

	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount, conflictCount := 0, 0

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_, err := env.svc.Signup(ctx, in)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successCount++
			case errors.Is(err, domain.ErrPrincipalExists):
				conflictCount++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successCount != 1 {
		t.Errorf("expected exactly one signup to win, got %d", successCount)
	}
	if conflictCount != concurrency-1 {
		t.Errorf("expected %d conflicts, got %d", concurrency-1, conflictCount)
	}
	if n := env.repo(domain.RoleCustomer).Count(); n != 1 {
		t.Errorf("expected 1 stored customer, got %d", n)
	}
}

// TestResetLockoutConcurrency fires wrong codes in parallel; no more codes are
// compared than the lockout allows and the account ends up blocked.
func TestResetLockoutConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping load test in short mode")
	}

	env := newAuthTestEnv(t)
	ctx := createTestContext(t)
	result := signupPrincipal(t, env, domain.RoleCustomer, "jane@example.com")
	requestCode(t, env)

	concurrency := 12
	counts := raceReset(ctx, env, concurrency, func(int) string { return wrongCode })

	if counts[domain.KindValidation] != 5 {
		t.Errorf("expected exactly 5 compared codes, got %d", counts[domain.KindValidation])
	}
	if counts[domain.KindLocked] != concurrency-5 {
		t.Errorf("expected %d locked attempts, got %s", concurrency-5, fmt.Sprint(counts))
	}

	stored := env.repo(domain.RoleCustomer).Get(result.Principal.ID)
	if stored.InvalidResetAttempts != 5 {
		t.Errorf("expected 5 recorded attempts, got %d", stored.InvalidResetAttempts)
	}
	if stored.ResetBlockedUntil == nil {
		t.Error("expected the account to be blocked")
	}

	err := env.svc.ResetPassword(ctx, domain.RoleCustomer, domain.ResetInput{
		Email: "jane@example.com", Code: env.resetCodes.Last(), NewPassword: "Fresh1234",
	})
	if !errors.Is(err, domain.ErrResetLocked) {
		t.Errorf("expected locked with the right code, got %v", err)
	}
}

// TestResetMixedCodesConcurrency hides the right code among wrong ones; the
// right code only wins if it is among the allowed attempts.
func TestResetMixedCodesConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping load test in short mode")
	}

	env := newAuthTestEnv(t)
	ctx := createTestContext(t)
	signupPrincipal(t, env, domain.RoleCustomer, "jane@example.com")
	requestCode(t, env)
	right := env.resetCodes.Last()

	concurrency := 11
	counts := raceReset(ctx, env, concurrency, func(i int) string {
		if i == concurrency-1 {
			return right
		}
		return wrongCode
	})

	compared := counts[domain.KindValidation] + counts[""]
	if compared > 5 {
		t.Errorf("expected at most 5 compared codes, got %s", fmt.Sprint(counts))
	}
	if counts[""] > 1 {
		t.Errorf("expected at most one successful reset, got %d", counts[""])
	}
}

// TestResetCodeSingleUseConcurrency submits the right code in parallel; it
// must be consumed exactly once.
func TestResetCodeSingleUseConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping load test in short mode")
	}

	env := newAuthTestEnv(t)
	ctx := createTestContext(t)
	result := signupPrincipal(t, env, domain.RoleCustomer, "jane@example.com")
	before := env.repo(domain.RoleCustomer).Get(result.Principal.ID).SecretHash
	requestCode(t, env)
	right := env.resetCodes.Last()

	concurrency := 10
	counts := raceReset(ctx, env, concurrency, func(int) string { return right })

	if counts[""] != 1 {
		t.Fatalf("expected exactly one successful reset, got %s", fmt.Sprint(counts))
	}
	if counts[domain.KindExpired]+counts[domain.KindLocked] != concurrency-1 {
		t.Errorf("unexpected outcomes: %s", fmt.Sprint(counts))
	}

	stored := env.repo(domain.RoleCustomer).Get(result.Principal.ID)
	if stored.SecretHash == before {
		t.Error("expected the password to change")
	}
	if stored.ResetTokenHash != "" {
		t.Error("expected the code to be consumed")
	}
}

// raceReset runs n concurrent resets for jane and tallies the error kinds;
// a successful reset is tallied under the empty kind.
func raceReset(ctx context.Context, env *authTestEnv, n int, code func(i int) string) map[domain.ErrorKind]int {
	var wg sync.WaitGroup
	var mu sync.Mutex
	counts := map[domain.ErrorKind]int{}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := env.svc.ResetPassword(ctx, domain.RoleCustomer, domain.ResetInput{
				Email: "jane@example.com", Code: code(i), NewPassword: "Fresh1234",
			})
			var kind domain.ErrorKind
			if err != nil {
				kind = domain.KindOf(err)
			}
			mu.Lock()
			counts[kind]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	return counts
}
