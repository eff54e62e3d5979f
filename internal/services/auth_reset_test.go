package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

// wrongCode can never be issued; issued codes have no leading zero.
const wrongCode = "000000"

func TestAuthServiceImpl_RequestReset(t *testing.T) {
	env := newAuthTestEnv(t)
	ctx := createTestContext(t)
	admin := signupPrincipal(t, env, domain.RoleAdmin, "ops@example.com")

	if err := env.svc.RequestReset(ctx, domain.RoleAdmin, " OPS@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	code := env.resetCodes.Last()
	stored := env.repo(domain.RoleAdmin).Get(admin.Principal.ID)
	if stored.ResetTokenHash == "" || stored.ResetTokenHash == code {
		t.Errorf("expected a hashed code, got %q", stored.ResetTokenHash)
	}
	if stored.ResetTokenHash != HashResetCode(code) {
		t.Error("stored hash does not match the issued code")
	}
	if want := env.clock.Now().Add(15 * time.Minute); !stored.ResetTokenExpires.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, stored.ResetTokenExpires)
	}

	email := env.notifier.LastEmail()
	if email == nil {
		t.Fatal("expected reset email")
	}
	if email.Subject != "Admin Password Reset Verification Code" {
		t.Errorf("unexpected subject %q", email.Subject)
	}
	if !strings.Contains(email.HTML, code) || !strings.Contains(email.Text, code) {
		t.Error("reset email does not carry the code")
	}
	if !strings.Contains(email.HTML, "contact IT support") {
		t.Error("admin reset email should carry the admin disclaimer")
	}
}

func TestAuthServiceImpl_RequestReset_UnknownAccount(t *testing.T) {
	tests := []struct {
		name    string
		hide    bool
		wantErr error
	}{
		{name: "hidden", hide: true},
		{name: "revealed", hide: false, wantErr: domain.ErrPrincipalNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newAuthTestEnv(t, func(o *AuthOptions) { o.HideAccountExistence = tt.hide })

			err := env.svc.RequestReset(createTestContext(t), domain.RoleCustomer, "nobody@example.com")
			if tt.wantErr == nil && err != nil {
				t.Fatalf("expected silent success, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(env.notifier.Emails) != 0 {
				t.Error("no email for an unknown account")
			}
		})
	}
}

func TestAuthServiceImpl_RequestReset_EmailFailureStillSucceeds(t *testing.T) {
	env := newAuthTestEnv(t)
	signupPrincipal(t, env, domain.RoleCustomer, "jane@example.com")
	env.notifier.SendEmailFunc = func(ctx context.Context, msg *domain.EmailMessage) (*domain.EmailReceipt, error) {
		return nil, errors.New("smtp down")
	}

	if err := env.svc.RequestReset(createTestContext(t), domain.RoleCustomer, "jane@example.com"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestAuthServiceImpl_RequestReset_SMS(t *testing.T) {
	env := newAuthTestEnv(t, func(o *AuthOptions) { o.SMSResetCodes = true })
	signupPrincipal(t, env, domain.RoleDeliveryAgent, "rider@example.com")

	if err := env.svc.RequestReset(createTestContext(t), domain.RoleDeliveryAgent, "rider@example.com"); err != nil {
		t.Fatal(err)
	}
	if len(env.notifier.SMS) != 1 {
		t.Fatalf("expected one sms, got %v", env.notifier.SMS)
	}
	sms := env.notifier.SMS[0]
	if !strings.HasPrefix(sms, "+2348000000003: ") || !strings.Contains(sms, env.resetCodes.Last()) {
		t.Errorf("unexpected sms %q", sms)
	}
}

func TestAuthServiceImpl_ResetPassword_SingleUse(t *testing.T) {
	env := newAuthTestEnv(t)
	ctx := createTestContext(t)
	result := signupPrincipal(t, env, domain.RoleCustomer, "jane@example.com")

	if err := env.svc.RequestReset(ctx, domain.RoleCustomer, "jane@example.com"); err != nil {
		t.Fatal(err)
	}
	in := domain.ResetInput{Email: "jane@example.com", Code: env.resetCodes.Last(), NewPassword: "Fresh1234"}

	env.clock.Advance(time.Second)
	if err := env.svc.ResetPassword(ctx, domain.RoleCustomer, in); err != nil {
		t.Fatalf("first reset: %v", err)
	}

	stored := env.repo(domain.RoleCustomer).Get(result.Principal.ID)
	if stored.SecretHash != "hashed_Fresh1234" {
		t.Errorf("password not replaced: %q", stored.SecretHash)
	}
	if stored.ResetTokenHash != "" || stored.ResetTokenExpires != nil {
		t.Error("code should be cleared after use")
	}
	if stored.PasswordChangedAt == nil || !stored.PasswordChangedAt.Equal(env.clock.Now()) {
		t.Errorf("expected password change stamp, got %v", stored.PasswordChangedAt)
	}

	in.NewPassword = "Again1234"
	err := env.svc.ResetPassword(ctx, domain.RoleCustomer, in)
	if !errors.Is(err, domain.ErrResetCodeExpired) {
		t.Fatalf("second use must fail as expired, got %v", err)
	}

	_, err = env.svc.VerifyToken(ctx, result.Token)
	assertKind(t, err, domain.KindStalePassword)
}

func TestAuthServiceImpl_ResetPassword_Lockout(t *testing.T) {
	env := newAuthTestEnv(t)
	ctx := createTestContext(t)
	result := signupPrincipal(t, env, domain.RoleVendor, "shop@example.com")

	if err := env.svc.RequestReset(ctx, domain.RoleVendor, "shop@example.com"); err != nil {
		t.Fatal(err)
	}
	code := env.resetCodes.Last()

	for i := 1; i <= 5; i++ {
		err := env.svc.ResetPassword(ctx, domain.RoleVendor, domain.ResetInput{
			Email: "shop@example.com", Code: wrongCode, NewPassword: "Fresh1234",
		})
		if !errors.Is(err, domain.ErrResetCodeInvalid) {
			t.Fatalf("attempt %d: expected invalid code, got %v", i, err)
		}
	}

	stored := env.repo(domain.RoleVendor).Get(result.Principal.ID)
	if stored.InvalidResetAttempts != 5 {
		t.Errorf("expected 5 failed attempts, got %d", stored.InvalidResetAttempts)
	}
	if want := env.clock.Now().Add(30 * time.Minute); stored.ResetBlockedUntil == nil || !stored.ResetBlockedUntil.Equal(want) {
		t.Errorf("expected block until %v, got %v", want, stored.ResetBlockedUntil)
	}

	// the correct code is refused while blocked
	err := env.svc.ResetPassword(ctx, domain.RoleVendor, domain.ResetInput{
		Email: "shop@example.com", Code: code, NewPassword: "Fresh1234",
	})
	if !errors.Is(err, domain.ErrResetLocked) {
		t.Fatalf("expected locked, got %v", err)
	}
	if stored := env.repo(domain.RoleVendor).Get(result.Principal.ID); stored.SecretHash != "hashed_"+testPassword {
		t.Error("password must not change while blocked")
	}

	var locked int
	for _, e := range env.audit.Events {
		if e.EventType == domain.PasswordResetLockedEvent {
			locked++
		}
	}
	if locked != 1 {
		t.Errorf("expected one lockout audit event, got %d", locked)
	}

	// once the block and the code have both lapsed a new code works
	env.clock.Advance(31 * time.Minute)
	if err := env.svc.RequestReset(ctx, domain.RoleVendor, "shop@example.com"); err != nil {
		t.Fatal(err)
	}
	err = env.svc.ResetPassword(ctx, domain.RoleVendor, domain.ResetInput{
		Email: "shop@example.com", Code: env.resetCodes.Last(), NewPassword: "Fresh1234",
	})
	if err != nil {
		t.Fatalf("reset after block: %v", err)
	}
	stored = env.repo(domain.RoleVendor).Get(result.Principal.ID)
	if stored.InvalidResetAttempts != 0 || stored.ResetBlockedUntil != nil {
		t.Errorf("lockout state not cleared: %d %v", stored.InvalidResetAttempts, stored.ResetBlockedUntil)
	}
}

func TestAuthServiceImpl_ResetPassword_Errors(t *testing.T) {
	tests := []struct {
		name    string
		hide    bool
		prepare func(t *testing.T, env *authTestEnv) domain.ResetInput
		kind    domain.ErrorKind
		wantErr error
	}{
		{
			name: "expired code",
			hide: true,
			prepare: func(t *testing.T, env *authTestEnv) domain.ResetInput {
				requestCode(t, env)
				env.clock.Advance(15 * time.Minute)
				return domain.ResetInput{Email: "jane@example.com", Code: env.resetCodes.Last(), NewPassword: "Fresh1234"}
			},
			wantErr: domain.ErrResetCodeExpired,
		},
		{
			name: "no code requested",
			hide: true,
			prepare: func(t *testing.T, env *authTestEnv) domain.ResetInput {
				return domain.ResetInput{Email: "jane@example.com", Code: "123456", NewPassword: "Fresh1234"}
			},
			wantErr: domain.ErrResetCodeExpired,
		},
		{
			name: "weak new password",
			hide: true,
			prepare: func(t *testing.T, env *authTestEnv) domain.ResetInput {
				requestCode(t, env)
				return domain.ResetInput{Email: "jane@example.com", Code: env.resetCodes.Last(), NewPassword: "weak"}
			},
			kind: domain.KindValidation,
		},
		{
			name: "missing code",
			hide: true,
			prepare: func(t *testing.T, env *authTestEnv) domain.ResetInput {
				return domain.ResetInput{Email: "jane@example.com", NewPassword: "Fresh1234"}
			},
			kind: domain.KindValidation,
		},
		{
			name: "unknown account hidden",
			hide: true,
			prepare: func(t *testing.T, env *authTestEnv) domain.ResetInput {
				return domain.ResetInput{Email: "nobody@example.com", Code: "123456", NewPassword: "Fresh1234"}
			},
			wantErr: domain.ErrResetCodeInvalid,
		},
		{
			name: "unknown account revealed",
			hide: false,
			prepare: func(t *testing.T, env *authTestEnv) domain.ResetInput {
				return domain.ResetInput{Email: "nobody@example.com", Code: "123456", NewPassword: "Fresh1234"}
			},
			wantErr: domain.ErrPrincipalNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newAuthTestEnv(t, func(o *AuthOptions) { o.HideAccountExistence = tt.hide })
			signupPrincipal(t, env, domain.RoleCustomer, "jane@example.com")

			err := env.svc.ResetPassword(createTestContext(t), domain.RoleCustomer, tt.prepare(t, env))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			assertKind(t, err, tt.kind)
		})
	}
}

func TestAuthServiceImpl_ResetPassword_ExpiredDoesNotCount(t *testing.T) {
	env := newAuthTestEnv(t)
	result := signupPrincipal(t, env, domain.RoleCustomer, "jane@example.com")
	requestCode(t, env)
	env.clock.Advance(16 * time.Minute)

	for i := 0; i < 6; i++ {
		_ = env.svc.ResetPassword(createTestContext(t), domain.RoleCustomer, domain.ResetInput{
			Email: "jane@example.com", Code: wrongCode, NewPassword: "Fresh1234",
		})
	}
	if stored := env.repo(domain.RoleCustomer).Get(result.Principal.ID); stored.InvalidResetAttempts != 0 {
		t.Errorf("expired attempts must not count, got %d", stored.InvalidResetAttempts)
	}
}

func TestAuthServiceImpl_ResetPassword_WeakPasswordKeepsCode(t *testing.T) {
	env := newAuthTestEnv(t)
	ctx := createTestContext(t)
	signupPrincipal(t, env, domain.RoleCustomer, "jane@example.com")
	requestCode(t, env)
	code := env.resetCodes.Last()

	err := env.svc.ResetPassword(ctx, domain.RoleCustomer, domain.ResetInput{Email: "jane@example.com", Code: code, NewPassword: "short"})
	assertKind(t, err, domain.KindValidation)

	err = env.svc.ResetPassword(ctx, domain.RoleCustomer, domain.ResetInput{Email: "jane@example.com", Code: code, NewPassword: "Fresh1234"})
	if err != nil {
		t.Fatalf("code should still be usable: %v", err)
	}
}

func TestAuthServiceImpl_ResetPassword_RoleIsolation(t *testing.T) {
	env := newAuthTestEnv(t)
	ctx := createTestContext(t)
	signupPrincipal(t, env, domain.RoleCustomer, "jane@example.com")
	vendor := signupPrincipal(t, env, domain.RoleVendor, "jane@example.com")

	if err := env.svc.RequestReset(ctx, domain.RoleCustomer, "jane@example.com"); err != nil {
		t.Fatal(err)
	}

	err := env.svc.ResetPassword(ctx, domain.RoleVendor, domain.ResetInput{
		Email: "jane@example.com", Code: env.resetCodes.Last(), NewPassword: "Fresh1234",
	})
	if !errors.Is(err, domain.ErrResetCodeExpired) {
		t.Fatalf("a customer code must not reset the vendor, got %v", err)
	}
	if stored := env.repo(domain.RoleVendor).Get(vendor.Principal.ID); stored.SecretHash != "hashed_"+testPassword {
		t.Error("vendor password changed")
	}
}

func requestCode(t *testing.T, env *authTestEnv) {
	t.Helper()

	if err := env.svc.RequestReset(createTestContext(t), domain.RoleCustomer, "jane@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
}
