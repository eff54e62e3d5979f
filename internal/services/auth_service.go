package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ultimatefaloe/59Minutes-Backend/domain"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/metrics"
)

// AuthOptions tunes the credential lifecycle.
type AuthOptions struct {
	ResetMaxAttempts   int
	ResetBlockDuration time.Duration
	// HideAccountExistence makes login and both reset operations answer the
	// same way for unknown and known addresses.
	HideAccountExistence bool
	NotificationTimeout  time.Duration
	// SMSResetCodes also texts reset codes to the profile phone, when there is one.
	SMSResetCodes bool
	Now           func() time.Time
}

// DefaultAuthOptions returns the production defaults.
func DefaultAuthOptions() AuthOptions {
	return AuthOptions{
		ResetMaxAttempts:     5,
		ResetBlockDuration:   30 * time.Minute,
		HideAccountExistence: true,
		NotificationTimeout:  5 * time.Second,
		Now:                  time.Now,
	}
}

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	store       domain.PrincipalStore
	passwordSvc domain.PasswordService
	tokenSvc    domain.TokenService
	resetCodes  domain.ResetCodeService
	notifier    domain.NotificationService
	audit       domain.AuditLogger
	log         *slog.Logger
	opts        AuthOptions
}

// NewAuthService creates a new auth service
func NewAuthService(
	store domain.PrincipalStore,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService,
	resetCodes domain.ResetCodeService,
	notifier domain.NotificationService,
	audit domain.AuditLogger,
	log *slog.Logger,
	opts AuthOptions,
) domain.AuthService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ResetMaxAttempts <= 0 {
		opts.ResetMaxAttempts = 5
	}
	if opts.NotificationTimeout <= 0 {
		opts.NotificationTimeout = 5 * time.Second
	}
	return &AuthServiceImpl{
		store:       store,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		resetCodes:  resetCodes,
		notifier:    notifier,
		audit:       audit,
		log:         log,
		opts:        opts,
	}
}

// Signup implements domain.AuthService
func (s *AuthServiceImpl) Signup(ctx context.Context, in domain.SignupInput) (result *domain.AuthResult, err error) {
	defer func() { metrics.ObserveOperation("signup", string(in.Role), err) }()

	repo, err := s.repository(in.Role)
	if err != nil {
		return nil, err
	}
	desc := repo.Descriptor()

	email := domain.NormalizeEmail(in.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if desc.RequiresTerms && !in.AgreeToTerms {
		return nil, domain.ErrValidation("you must agree to the terms of service")
	}
	if in.Profile == nil {
		return nil, domain.ErrValidation("profile is required")
	}
	if in.Profile.Role() != in.Role {
		return nil, domain.ErrValidation("profile does not match role " + string(in.Role))
	}
	if err := in.Profile.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	// The unique index is the source of truth; this only avoids hashing for a known duplicate.
	if _, err := repo.FindByLoginIdentifier(ctx, email); err == nil {
		return nil, domain.ErrPrincipalExists
	} else if !errors.Is(err, domain.ErrPrincipalNotFound) {
		return nil, s.internal(ctx, "signup", err)
	}

	hash, err := s.passwordSvc.Hash(in.Password)
	if err != nil {
		return nil, s.internal(ctx, "signup", err)
	}

	now := s.opts.Now()
	principal := &domain.Principal{
		ID:              uuid.NewString(),
		Role:            in.Role,
		LoginIdentifier: email,
		SecretHash:      hash,
		Provider:        domain.ProviderLocal,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
		Profile:         in.Profile.WithDefaults(),
	}
	if err := repo.Create(ctx, principal); err != nil {
		return nil, s.internal(ctx, "signup", err)
	}

	result, err = s.authenticate(ctx, principal)
	if err != nil {
		return nil, err
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PrincipalSignupEvent, in.Role, principal.ID, now).
		WithEmail(email).WithIP(in.ClientIP))
	s.notify(ctx, "welcome", func() (*domain.EmailMessage, error) {
		return welcomeEmail(principal, in.ClientIP, now)
	})
	return result, nil
}

// SocialSignup implements domain.AuthService. The identity has already been
// verified by the identity provider.
func (s *AuthServiceImpl) SocialSignup(ctx context.Context, identity *domain.ExternalIdentity, clientIP string) (result *domain.AuthResult, err error) {
	defer func() { metrics.ObserveOperation("social_signup", string(domain.RoleCustomer), err) }()

	if identity == nil || identity.UID == "" {
		return nil, domain.ErrTokenMalformed
	}
	repo, err := s.repository(domain.RoleCustomer)
	if err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(identity.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}

	if _, err := repo.FindByExternalUID(ctx, identity.UID); err == nil {
		return nil, domain.ErrPrincipalExists
	} else if !errors.Is(err, domain.ErrPrincipalNotFound) {
		return nil, s.internal(ctx, "social signup", err)
	}
	if _, err := repo.FindByLoginIdentifier(ctx, email); err == nil {
		return nil, domain.ErrPrincipalExists
	} else if !errors.Is(err, domain.ErrPrincipalNotFound) {
		return nil, s.internal(ctx, "social signup", err)
	}

	provider := identity.Provider
	if provider == "" || provider == domain.ProviderLocal {
		provider = domain.ProviderGoogle
	}

	now := s.opts.Now()
	principal := &domain.Principal{
		ID:              uuid.NewString(),
		Role:            domain.RoleCustomer,
		LoginIdentifier: email,
		Provider:        provider,
		ExternalUID:     identity.UID,
		IsVerified:      true,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
		Profile:         &domain.CustomerProfile{FullName: identity.FullName, Avatar: identity.Picture},
	}
	if err := repo.Create(ctx, principal); err != nil {
		return nil, s.internal(ctx, "social signup", err)
	}

	result, err = s.authenticate(ctx, principal)
	if err != nil {
		return nil, err
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PrincipalSignupEvent, domain.RoleCustomer, principal.ID, now).
		WithEmail(email).WithIP(clientIP).WithMetadata("provider", provider))
	s.notify(ctx, "welcome", func() (*domain.EmailMessage, error) {
		return welcomeEmail(principal, clientIP, now)
	})
	return result, nil
}

// Login implements domain.AuthService. Only principals created through local
// signup can log in with a password.
func (s *AuthServiceImpl) Login(ctx context.Context, role domain.Role, in domain.LoginInput) (result *domain.AuthResult, err error) {
	defer func() { metrics.ObserveOperation("login", string(role), err) }()

	repo, err := s.repository(role)
	if err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrValidation("email and password are required")
	}

	principal, err := repo.FindByLoginIdentifier(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, s.internal(ctx, "login", err)
		}
		s.loginFailed(ctx, role, "", email, in.ClientIP, err)
		return nil, s.unknownAccount(domain.ErrInvalidCredentials)
	}
	if principal.Provider != domain.ProviderLocal || principal.SecretHash == "" {
		s.loginFailed(ctx, role, principal.ID, email, in.ClientIP, domain.ErrInvalidCredentials)
		return nil, s.unknownAccount(domain.ErrInvalidCredentials)
	}
	if !s.passwordSvc.Verify(principal.SecretHash, in.Password) {
		s.loginFailed(ctx, role, principal.ID, email, in.ClientIP, domain.ErrInvalidCredentials)
		return nil, domain.ErrInvalidCredentials
	}
	if !principal.IsActive {
		s.loginFailed(ctx, role, principal.ID, email, in.ClientIP, domain.ErrAccountDeactivated)
		return nil, domain.ErrAccountDeactivated
	}

	return s.completeLogin(ctx, repo, principal, in.ClientIP)
}

// SocialLogin implements domain.AuthService
func (s *AuthServiceImpl) SocialLogin(ctx context.Context, identity *domain.ExternalIdentity, clientIP string) (result *domain.AuthResult, err error) {
	defer func() { metrics.ObserveOperation("social_login", string(domain.RoleCustomer), err) }()

	if identity == nil || identity.UID == "" {
		return nil, domain.ErrTokenMalformed
	}
	repo, err := s.repository(domain.RoleCustomer)
	if err != nil {
		return nil, err
	}

	principal, err := repo.FindByExternalUID(ctx, identity.UID)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			s.loginFailed(ctx, domain.RoleCustomer, "", identity.Email, clientIP, err)
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, s.internal(ctx, "social login", err)
	}
	if !principal.IsActive {
		s.loginFailed(ctx, domain.RoleCustomer, principal.ID, principal.LoginIdentifier, clientIP, domain.ErrAccountDeactivated)
		return nil, domain.ErrAccountDeactivated
	}

	return s.completeLogin(ctx, repo, principal, clientIP)
}

func (s *AuthServiceImpl) completeLogin(ctx context.Context, repo domain.PrincipalRepository, principal *domain.Principal, clientIP string) (*domain.AuthResult, error) {
	now := s.opts.Now()
	if err := repo.TouchLogin(ctx, principal.ID, now); err != nil {
		s.log.WarnContext(ctx, "failed to record last login", "principal_id", principal.ID, "error", err)
	} else {
		principal.LastLoginAt = &now
	}

	result, err := s.authenticate(ctx, principal)
	if err != nil {
		return nil, err
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.LoginEvent, principal.Role, principal.ID, now).
		WithEmail(principal.LoginIdentifier).WithIP(clientIP))
	s.notify(ctx, "login_alert", func() (*domain.EmailMessage, error) {
		return loginAlertEmail(principal, clientIP, now)
	})
	return result, nil
}

// VerifyToken implements domain.AuthService. The role claim alone selects the
// table; there is no fallback to other roles.
func (s *AuthServiceImpl) VerifyToken(ctx context.Context, token string) (*domain.SafeProfile, error) {
	principal, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return principal.Safe(), nil
}

// GetProfile implements domain.AuthService
func (s *AuthServiceImpl) GetProfile(ctx context.Context, token string) (*domain.SafeProfile, error) {
	return s.VerifyToken(ctx, token)
}

// resolve maps a bearer token to its active principal.
func (s *AuthServiceImpl) resolve(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := s.tokenSvc.Validate(token)
	if err != nil {
		var ae *domain.AuthError
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, domain.WrapAuthError(domain.KindMalformedToken, domain.ErrTokenMalformed.Message, err)
	}

	repo, err := s.repository(claims.Role)
	if err != nil {
		return nil, domain.ErrUnknownRole
	}
	principal, err := repo.FindByID(ctx, claims.PrincipalID)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, s.internal(ctx, "verify token", err)
	}
	if !principal.IsActive {
		return nil, domain.ErrAccountDeactivated
	}
	if principal.PasswordChangedAt != nil && claims.IssuedAt.UnixMilli() < principal.PasswordChangedAt.UnixMilli() {
		return nil, domain.ErrTokenStale
	}
	return principal, nil
}

func (s *AuthServiceImpl) authenticate(ctx context.Context, principal *domain.Principal) (*domain.AuthResult, error) {
	issued, err := s.tokenSvc.Issue(principal)
	if err != nil {
		return nil, s.internal(ctx, "issue token", err)
	}
	return &domain.AuthResult{
		Principal: principal.Safe(),
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

func (s *AuthServiceImpl) repository(role domain.Role) (domain.PrincipalRepository, error) {
	if !role.Valid() {
		return nil, domain.ErrUnknownRole
	}
	repo, err := s.store.ForRole(role)
	if err != nil {
		return nil, domain.ErrUnknownRole
	}
	return repo, nil
}

// unknownAccount picks the error for an address with no usable account.
func (s *AuthServiceImpl) unknownAccount(hidden *domain.AuthError) error {
	if s.opts.HideAccountExistence {
		return hidden
	}
	return domain.ErrPrincipalNotFound
}

// internal passes AuthErrors through and converts anything else to an internal error.
func (s *AuthServiceImpl) internal(ctx context.Context, op string, err error) error {
	var ae *domain.AuthError
	if errors.As(err, &ae) {
		return ae
	}
	s.log.ErrorContext(ctx, op+" failed", "error", err)
	return domain.ErrInternal(op, err)
}

func (s *AuthServiceImpl) loginFailed(ctx context.Context, role domain.Role, id, email, ip string, cause error) {
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.LoginFailureEvent, role, id, s.opts.Now()).
		WithEmail(email).WithIP(ip).WithError(cause))
}

// notify sends one best-effort email. Failures are logged and counted, never returned.
func (s *AuthServiceImpl) notify(ctx context.Context, kind string, build func() (*domain.EmailMessage, error)) bool {
	msg, err := build()
	if err != nil {
		s.log.ErrorContext(ctx, "failed to build notification", "kind", kind, "error", err)
		metrics.NotificationFailuresTotal.WithLabelValues("email", kind).Inc()
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.opts.NotificationTimeout)
	defer cancel()

	receipt, err := s.notifier.SendEmail(sendCtx, msg)
	if err != nil || receipt == nil || len(receipt.Accepted) == 0 {
		s.log.WarnContext(ctx, "notification not delivered", "kind", kind, "error", err)
		metrics.NotificationFailuresTotal.WithLabelValues("email", kind).Inc()
		return false
	}
	return true
}

func (s *AuthServiceImpl) notifySMS(ctx context.Context, kind, to, body string) {
	sendCtx, cancel := context.WithTimeout(ctx, s.opts.NotificationTimeout)
	defer cancel()

	if err := s.notifier.SendSMS(sendCtx, to, body); err != nil {
		s.log.WarnContext(ctx, "sms not delivered", "kind", kind, "error", err)
		metrics.NotificationFailuresTotal.WithLabelValues("sms", kind).Inc()
	}
}
