package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/metrics"
)

// RequestReset implements domain.AuthService. A new code replaces any
// outstanding one. Email delivery is best-effort.
func (s *AuthServiceImpl) RequestReset(ctx context.Context, role domain.Role, email string) (err error) {
	defer func() { metrics.ObserveOperation("request_reset", string(role), err) }()

	repo, err := s.repository(role)
	if err != nil {
		return err
	}
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return err
	}

	principal, err := s.resettable(ctx, repo, email)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) && s.opts.HideAccountExistence {
			s.log.DebugContext(ctx, "reset requested for unknown account", "role", role)
			return nil
		}
		return err
	}

	code, err := s.resetCodes.Issue()
	if err != nil {
		return s.internal(ctx, "request reset", err)
	}
	if err := repo.SaveResetCode(ctx, principal.ID, code.Hash, code.ExpiresAt); err != nil {
		return s.internal(ctx, "request reset", err)
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordResetRequestEvent, role, principal.ID, s.opts.Now()).
		WithEmail(email))

	sent := s.notify(ctx, "reset_code", func() (*domain.EmailMessage, error) {
		return resetCodeEmail(principal, code)
	})
	if !sent {
		s.log.WarnContext(ctx, "reset code stored but email not delivered", "principal_id", principal.ID)
	}
	if s.opts.SMSResetCodes && principal.Profile != nil {
		if phone := principal.Profile.ContactPhone(); phone != "" {
			s.notifySMS(ctx, "reset_code", phone,
				fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.",
					code.Raw, int(code.ExpiresAt.Sub(s.opts.Now()).Round(time.Minute).Minutes())))
		}
	}
	return nil
}

// ResetPassword implements domain.AuthService. Every code comparison first
// reserves an attempt in the store; once the reserved attempts reach the
// limit every further attempt, correct or not, is blocked until the block
// elapses. A correct code clears the counter.
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, role domain.Role, in domain.ResetInput) (err error) {
	defer func() { metrics.ObserveOperation("reset_password", string(role), err) }()

	repo, err := s.repository(role)
	if err != nil {
		return err
	}
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Code == "" {
		return domain.ErrValidation("email and code are required")
	}
	// policy first: a rejected password leaves the code usable
	if err := domain.ValidatePassword(in.NewPassword); err != nil {
		return err
	}

	principal, err := s.resettable(ctx, repo, email)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) && s.opts.HideAccountExistence {
			return domain.ErrResetCodeInvalid
		}
		return err
	}

	now := s.opts.Now()
	outcome, failure, err := s.reserveAttempt(ctx, repo, principal, in.Code, now)
	if err != nil {
		return err
	}
	switch outcome {
	case domain.ResetBlocked:
		s.resetFailed(ctx, principal, outcome)
		return domain.ErrResetLocked
	case domain.ResetExpired:
		s.resetFailed(ctx, principal, outcome)
		return domain.ErrResetCodeExpired
	case domain.ResetMismatch:
		s.resetFailed(ctx, principal, outcome)
		if failure.BlockedUntil != nil {
			metrics.ResetLockoutsTotal.WithLabelValues(string(role)).Inc()
			s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordResetLockedEvent, role, principal.ID, now).
				WithMetadata("attempts", failure.Attempts).
				WithMetadata("blocked_until", failure.BlockedUntil.UTC()))
		}
		return domain.ErrResetCodeInvalid
	}

	hash, err := s.passwordSvc.Hash(in.NewPassword)
	if err != nil {
		return s.internal(ctx, "reset password", err)
	}
	if err := repo.CompleteReset(ctx, principal.ID, principal.ResetTokenHash, hash, now); err != nil {
		if errors.Is(err, domain.ErrResetCodeExpired) {
			// a concurrent request consumed the code first
			s.resetFailed(ctx, principal, domain.ResetExpired)
			return domain.ErrResetCodeExpired
		}
		return s.internal(ctx, "reset password", err)
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordResetEvent, role, principal.ID, now).WithEmail(email))
	return nil
}

// reserveAttempt checks code against the latest stored state. Blocked and
// expired outcomes are returned without counting; anything else is only
// reported once the attempt is reserved, re-reading the principal when a
// concurrent attempt moved the counter first.
func (s *AuthServiceImpl) reserveAttempt(ctx context.Context, repo domain.PrincipalRepository, principal *domain.Principal, code string, now time.Time) (domain.ResetOutcome, *domain.ResetFailure, error) {
	for try := 0; try <= s.opts.ResetMaxAttempts; try++ {
		outcome := s.resetCodes.Validate(principal, code)
		if outcome == domain.ResetBlocked || outcome == domain.ResetExpired {
			return outcome, nil, nil
		}

		failure, err := repo.ReserveResetAttempt(ctx, principal.ID, principal.InvalidResetAttempts,
			s.opts.ResetMaxAttempts, s.opts.ResetBlockDuration, now)
		switch {
		case err == nil:
			return outcome, failure, nil
		case errors.Is(err, domain.ErrResetAttemptRaced):
			fresh, err := repo.FindByID(ctx, principal.ID)
			if err != nil {
				return 0, nil, s.internal(ctx, "reset password", err)
			}
			*principal = *fresh
		default:
			return 0, nil, s.internal(ctx, "reset password", err)
		}
	}
	return domain.ResetBlocked, nil, nil
}

// resettable finds the local account a reset applies to. Social-only
// customers have no password to reset.
func (s *AuthServiceImpl) resettable(ctx context.Context, repo domain.PrincipalRepository, email string) (*domain.Principal, error) {
	principal, err := repo.FindByLoginIdentifier(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, s.internal(ctx, "find account", err)
	}
	if principal.Provider != domain.ProviderLocal {
		return nil, domain.ErrPrincipalNotFound
	}
	return principal, nil
}

func (s *AuthServiceImpl) resetFailed(ctx context.Context, p *domain.Principal, outcome domain.ResetOutcome) {
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordResetFailureEvent, p.Role, p.ID, s.opts.Now()).
		WithEmail(p.LoginIdentifier).
		WithMetadata("outcome", outcome.String()).
		WithError(errors.New("reset code " + outcome.String())))
}
