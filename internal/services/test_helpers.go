package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/logger"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/mocks"
)

// testClock is a settable clock shared by the service and its collaborators.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 4, 10, 9, 30, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// recordingResetCodes wraps the real generator and remembers the last raw code,
// standing in for the user reading their inbox.
type recordingResetCodes struct {
	domain.ResetCodeService
	mu   sync.Mutex
	last *domain.ResetCode
}

func (r *recordingResetCodes) Issue() (*domain.ResetCode, error) {
	code, err := r.ResetCodeService.Issue()
	if err == nil {
		r.mu.Lock()
		r.last = code
		r.mu.Unlock()
	}
	return code, err
}

func (r *recordingResetCodes) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return ""
	}
	return r.last.Raw
}

// authTestEnv bundles an AuthService with the mocks behind it.
type authTestEnv struct {
	svc        domain.AuthService
	store      *mocks.MockPrincipalStore
	passwords  *mocks.MockPasswordService
	tokens     *mocks.MockTokenService
	resetCodes *recordingResetCodes
	notifier   *mocks.MockNotificationService
	audit      *mocks.MockAuditLogger
	clock      *testClock
}

// newAuthTestEnv creates an AuthService with in-memory mocks and a fixed clock.
func newAuthTestEnv(t *testing.T, configure ...func(*AuthOptions)) *authTestEnv {
	t.Helper()

	clock := newTestClock()
	env := &authTestEnv{
		store:      mocks.NewMockPrincipalStore(),
		passwords:  mocks.NewMockPasswordService(),
		tokens:     mocks.NewMockTokenService(),
		resetCodes: &recordingResetCodes{ResetCodeService: NewResetCodeService(15*time.Minute, clock.Now)},
		notifier:   mocks.NewMockNotificationService(),
		audit:      mocks.NewMockAuditLogger(),
		clock:      clock,
	}
	env.tokens.Now = clock.Now

	opts := DefaultAuthOptions()
	opts.Now = clock.Now
	opts.NotificationTimeout = 50 * time.Millisecond
	for _, fn := range configure {
		fn(&opts)
	}

	env.svc = NewAuthService(env.store, env.passwords, env.tokens, env.resetCodes, env.notifier, env.audit, logger.Discard(), opts)
	return env
}

func (e *authTestEnv) repo(role domain.Role) *mocks.MockPrincipalRepository {
	return e.store.Repos[role]
}

// createTestContext creates a context for testing with timeout
func createTestContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

const testPassword = "Passw0rd!"

// validProfile returns a complete signup profile for role.
func validProfile(t *testing.T, role domain.Role) domain.Profile {
	t.Helper()

	switch role {
	case domain.RoleCustomer:
		return &domain.CustomerProfile{FullName: "Ada Obi", Phone: "+2348000000001"}
	case domain.RoleVendor:
		return &domain.VendorProfile{
			BusinessName:        "Acme",
			BusinessDescription: "d",
			BusinessPhoneNumber: "123",
			BusinessAddress:     "1 Acme Way",
		}
	case domain.RoleAdmin:
		return &domain.AdminProfile{FullName: "Tola Ade", Department: "ops"}
	case domain.RoleDeliveryAgent:
		return &domain.DeliveryAgentProfile{
			FullName:      "Sam Eze",
			Phone:         "+2348000000003",
			VehicleType:   "motorcycle",
			LicenseNumber: "LAG-4471",
		}
	}
	t.Fatalf("no profile for role %s", role)
	return nil
}

// validSignup returns a signup input that passes every check for role.
func validSignup(t *testing.T, role domain.Role, email string) domain.SignupInput {
	t.Helper()

	return domain.SignupInput{
		Role:         role,
		Email:        email,
		Password:     testPassword,
		AgreeToTerms: true,
		Profile:      validProfile(t, role),
		ClientIP:     "203.0.113.7",
	}
}

// signupPrincipal creates an account through the service and returns the result.
func signupPrincipal(t *testing.T, env *authTestEnv, role domain.Role, email string) *domain.AuthResult {
	t.Helper()

	result, err := env.svc.Signup(createTestContext(t), validSignup(t, role, email))
	if err != nil {
		t.Fatalf("signup %s %s: %v", role, email, err)
	}
	return result
}

// assertKind fails unless err carries the expected kind.
func assertKind(t *testing.T, err error, want domain.ErrorKind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := domain.KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}
