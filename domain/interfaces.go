package domain

import (
	"context"
	"time"
)

// PrincipalRepository defines data access for the principals of a single role.
type PrincipalRepository interface {
	Descriptor() RoleDescriptor
	Create(ctx context.Context, principal *Principal) error
	FindByID(ctx context.Context, id string) (*Principal, error)
	FindByLoginIdentifier(ctx context.Context, identifier string) (*Principal, error)
	FindByExternalUID(ctx context.Context, uid string) (*Principal, error)
	UpdateProfile(ctx context.Context, id string, profile Profile) error
	// UpdateSecret replaces the digest and discards any outstanding reset code.
	UpdateSecret(ctx context.Context, id, secretHash string, changedAt time.Time) error
	// CompleteReset consumes the outstanding code matching codeHash, replaces
	// the digest and clears all reset and lockout state. It returns
	// ErrResetCodeExpired when that code is no longer stored.
	CompleteReset(ctx context.Context, id, codeHash, secretHash string, changedAt time.Time) error
	SaveResetCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error
	// ReserveResetAttempt moves the attempt counter from seen to seen+1 and
	// blocks further attempts when the new count reaches maxAttempts. It
	// returns ErrResetAttemptRaced when the counter no longer equals seen.
	ReserveResetAttempt(ctx context.Context, id string, seen, maxAttempts int, blockFor time.Duration, at time.Time) (*ResetFailure, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
	Deactivate(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// ResetFailure is the lockout state after a reserved reset attempt.
type ResetFailure struct {
	Attempts     int
	BlockedUntil *time.Time
}

// PrincipalStore resolves the repository for a role.
type PrincipalStore interface {
	ForRole(role Role) (PrincipalRepository, error)
}

// RateLimitRepository counts hits in fixed windows.
type RateLimitRepository interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}

// AuthService defines authentication business logic
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*AuthResult, error)
	SocialSignup(ctx context.Context, identity *ExternalIdentity, clientIP string) (*AuthResult, error)
	Login(ctx context.Context, role Role, in LoginInput) (*AuthResult, error)
	SocialLogin(ctx context.Context, identity *ExternalIdentity, clientIP string) (*AuthResult, error)
	RequestReset(ctx context.Context, role Role, email string) error
	ResetPassword(ctx context.Context, role Role, in ResetInput) error
	VerifyToken(ctx context.Context, token string) (*SafeProfile, error)
	GetProfile(ctx context.Context, token string) (*SafeProfile, error)
	UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (*SafeProfile, error)
	ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error
	DeactivateAccount(ctx context.Context, token string) error
	PurgeCustomer(ctx context.Context, id string) error
}

// ResetCodeService issues and checks one-time password reset codes.
type ResetCodeService interface {
	Issue() (*ResetCode, error)
	Validate(principal *Principal, raw string) ResetOutcome
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// TokenService defines token operations
type TokenService interface {
	Issue(principal *Principal) (*IssuedToken, error)
	Validate(token string) (*TokenClaims, error)
}

// NotificationService defines notification operations
type NotificationService interface {
	SendEmail(ctx context.Context, msg *EmailMessage) (*EmailReceipt, error)
	SendSMS(ctx context.Context, to, message string) error
}

// IdentityVerifier checks an assertion issued by the social identity provider.
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, assertion string) (*ExternalIdentity, error)
}

// EventPublisher delivers serialized events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
}

// PolicyService defines authorization policy operations
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	GetPolicies() [][]string
	SeedDefaults(policies [][]string) (int, error)
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}
