package services

import (
	"context"
	"errors"
	"time"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/metrics"
)

// UpdateProfile implements domain.AuthService. Only non-empty patch fields
// are applied; role and id cannot change. A new password goes through the
// same policy and stamping as ChangePassword.
func (s *AuthServiceImpl) UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (profile *domain.SafeProfile, err error) {
	principal, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	defer func() { metrics.ObserveOperation("update_profile", string(principal.Role), err) }()

	repo, err := s.repository(principal.Role)
	if err != nil {
		return nil, err
	}
	if update.Profile == nil && update.NewPassword == "" {
		return nil, domain.ErrValidation("nothing to update")
	}

	// reject the whole patch before anything is written
	if update.NewPassword != "" {
		if principal.Provider != domain.ProviderLocal {
			return nil, domain.ErrValidation("password cannot be set on a social sign-in account")
		}
		if err := domain.ValidatePassword(update.NewPassword); err != nil {
			return nil, err
		}
	}
	var merged domain.Profile
	if update.Profile != nil {
		if update.Profile.Role() != principal.Role {
			return nil, domain.ErrValidation("profile does not match role " + string(principal.Role))
		}
		if merged, err = principal.Profile.Merge(update.Profile); err != nil {
			return nil, err
		}
	}

	now := s.opts.Now()
	if merged != nil {
		if err := repo.UpdateProfile(ctx, principal.ID, merged); err != nil {
			return nil, s.internal(ctx, "update profile", err)
		}
		principal.Profile = merged
	}

	if update.NewPassword != "" {
		if err := s.replaceSecret(ctx, repo, principal, update.NewPassword, now); err != nil {
			return nil, err
		}
	}

	principal.UpdatedAt = now
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.ProfileUpdatedEvent, principal.Role, principal.ID, now).
		WithMetadata("password_changed", update.NewPassword != ""))
	return principal.Safe(), nil
}

// ChangePassword implements domain.AuthService. Every token issued before the
// change stops verifying.
func (s *AuthServiceImpl) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) (err error) {
	principal, err := s.resolve(ctx, token)
	if err != nil {
		return err
	}
	defer func() { metrics.ObserveOperation("change_password", string(principal.Role), err) }()

	repo, err := s.repository(principal.Role)
	if err != nil {
		return err
	}
	if currentPassword == "" || newPassword == "" {
		return domain.ErrValidation("current and new password are required")
	}
	if principal.SecretHash == "" || !s.passwordSvc.Verify(principal.SecretHash, currentPassword) {
		return domain.ErrInvalidCredentials
	}

	now := s.opts.Now()
	if err := s.replaceSecret(ctx, repo, principal, newPassword, now); err != nil {
		return err
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordChangedEvent, principal.Role, principal.ID, now))
	return nil
}

func (s *AuthServiceImpl) replaceSecret(ctx context.Context, repo domain.PrincipalRepository, principal *domain.Principal, password string, now time.Time) error {
	if err := domain.ValidatePassword(password); err != nil {
		return err
	}
	hash, err := s.passwordSvc.Hash(password)
	if err != nil {
		return s.internal(ctx, "change password", err)
	}
	if err := repo.UpdateSecret(ctx, principal.ID, hash, now); err != nil {
		return s.internal(ctx, "change password", err)
	}
	principal.SecretHash = hash
	principal.PasswordChangedAt = &now
	return nil
}

// DeactivateAccount implements domain.AuthService. The account is kept but
// fails every later token verification.
func (s *AuthServiceImpl) DeactivateAccount(ctx context.Context, token string) (err error) {
	principal, err := s.resolve(ctx, token)
	if err != nil {
		return err
	}
	defer func() { metrics.ObserveOperation("deactivate", string(principal.Role), err) }()

	repo, err := s.repository(principal.Role)
	if err != nil {
		return err
	}

	now := s.opts.Now()
	if err := repo.Deactivate(ctx, principal.ID, now); err != nil {
		return s.internal(ctx, "deactivate account", err)
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PrincipalDeactivatedEvent, principal.Role, principal.ID, now).
		WithEmail(principal.LoginIdentifier))
	s.notify(ctx, "deactivation", func() (*domain.EmailMessage, error) {
		return deactivationEmail(principal, now)
	})
	return nil
}

// PurgeCustomer implements domain.AuthService. The row is removed permanently.
// Callers are authorized by the transport layer.
func (s *AuthServiceImpl) PurgeCustomer(ctx context.Context, id string) (err error) {
	defer func() { metrics.ObserveOperation("purge", string(domain.RoleCustomer), err) }()

	if id == "" {
		return domain.ErrValidation("id is required")
	}
	repo, err := s.repository(domain.RoleCustomer)
	if err != nil {
		return err
	}
	if err := repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return domain.ErrPrincipalNotFound
		}
		return s.internal(ctx, "purge customer", err)
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PrincipalPurgedEvent, domain.RoleCustomer, id, s.opts.Now()))
	return nil
}
