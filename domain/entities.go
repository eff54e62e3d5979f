package domain

import "time"

// Sign-in providers
const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google.com"
	ProviderFacebook = "facebook.com"
)

// Principal is an account of any role. Role-specific attributes live in Profile.
type Principal struct {
	ID              string
	Role            Role
	LoginIdentifier string
	SecretHash      string `json:"-"`
	Provider        string
	ExternalUID     string
	IsVerified      bool
	IsActive        bool
	DeactivatedAt   *time.Time

	PasswordChangedAt    *time.Time
	ResetTokenHash       string `json:"-"`
	ResetTokenExpires    *time.Time
	InvalidResetAttempts int
	ResetBlockedUntil    *time.Time

	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Profile Profile
}

// Safe projects the principal without its secret and reset state.
func (p *Principal) Safe() *SafeProfile {
	return &SafeProfile{
		ID:          p.ID,
		Role:        p.Role,
		Email:       p.LoginIdentifier,
		Provider:    p.Provider,
		IsVerified:  p.IsVerified,
		IsActive:    p.IsActive,
		LastLoginAt: p.LastLoginAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Profile:     p.Profile,
	}
}

// ResetBlocked reports whether reset attempts are locked out at now.
func (p *Principal) ResetBlocked(now time.Time) bool {
	return p.ResetBlockedUntil != nil && p.ResetBlockedUntil.After(now)
}

// SafeProfile is the only principal shape that leaves the service boundary.
type SafeProfile struct {
	ID          string     `json:"id"`
	Role        Role       `json:"role"`
	Email       string     `json:"email"`
	Provider    string     `json:"provider,omitempty"`
	IsVerified  bool       `json:"isVerified"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Profile     Profile    `json:"profile"`
}

// SignupInput carries a local signup for any role.
type SignupInput struct {
	Role         Role
	Email        string
	Password     string
	AgreeToTerms bool
	Profile      Profile
	ClientIP     string
}

// LoginInput carries local credentials.
type LoginInput struct {
	Email    string
	Password string
	ClientIP string
}

// ResetInput completes a password reset.
type ResetInput struct {
	Email       string
	Code        string
	NewPassword string
}

// ProfileUpdate overlays non-empty profile fields and optionally replaces the password.
type ProfileUpdate struct {
	Profile     Profile
	NewPassword string
}

// AuthResult represents authentication outcome
type AuthResult struct {
	Principal *SafeProfile
	Token     string
	ExpiresAt time.Time
}

// ExternalIdentity is a verified assertion from the social identity provider.
type ExternalIdentity struct {
	UID           string
	Provider      string
	Email         string
	FullName      string
	Picture       string
	EmailVerified bool
}

// ResetCode is a freshly issued one-time code. Raw is only ever sent to the account owner.
type ResetCode struct {
	Raw       string
	Hash      string
	ExpiresAt time.Time
}

// ResetOutcome is the result of checking a submitted reset code.
type ResetOutcome int

const (
	ResetValid ResetOutcome = iota
	ResetExpired
	ResetMismatch
	ResetBlocked
)

func (o ResetOutcome) String() string {
	switch o {
	case ResetValid:
		return "valid"
	case ResetExpired:
		return "expired"
	case ResetMismatch:
		return "mismatch"
	case ResetBlocked:
		return "blocked"
	}
	return "unknown"
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	TokenID     string
	PrincipalID string
	Role        Role
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// IssuedToken is a signed bearer token and its expiry.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// EmailMessage is a single outbound email.
type EmailMessage struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// EmailReceipt reports which recipients the mail transport accepted.
type EmailReceipt struct {
	Accepted []string
	Rejected []string
}
