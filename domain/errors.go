package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure an auth operation can report.
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindConflict           ErrorKind = "conflict"
	KindNotFound           ErrorKind = "not_found"
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindLocked             ErrorKind = "locked"
	KindExpired            ErrorKind = "expired"
	KindDeactivated        ErrorKind = "deactivated"
	KindInternal           ErrorKind = "internal"
	KindForbidden          ErrorKind = "forbidden"
	KindRateLimited        ErrorKind = "rate_limited"
	KindUnavailable        ErrorKind = "unavailable"

	// Token verification failures
	KindMalformedToken ErrorKind = "malformed_token"
	KindExpiredToken   ErrorKind = "expired_token"
	KindUnknownRole    ErrorKind = "unknown_role"
	KindStalePassword  ErrorKind = "stale_password"
)

// AuthError is the error type returned by every AuthService operation.
type AuthError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches any AuthError of the same kind, so the sentinels below work with errors.Is.
func (e *AuthError) Is(target error) bool {
	var t *AuthError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// NewAuthError builds an AuthError of the given kind.
func NewAuthError(kind ErrorKind, message string) *AuthError {
	return &AuthError{Kind: kind, Message: message}
}

// WrapAuthError builds an AuthError that keeps the underlying cause.
func WrapAuthError(kind ErrorKind, message string, err error) *AuthError {
	return &AuthError{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Authentication errors
var (
	ErrInvalidCredentials = NewAuthError(KindInvalidCredentials, "invalid email or password")
	ErrPrincipalExists    = NewAuthError(KindConflict, "an account with this email already exists")
	ErrPrincipalNotFound  = NewAuthError(KindNotFound, "account not found")
	ErrAccountDeactivated = NewAuthError(KindDeactivated, "account has been deactivated")
	ErrSocialOnlyCustomer = NewAuthError(KindValidation, "social sign-in is only available for customers")
	ErrSocialUnavailable  = NewAuthError(KindUnavailable, "social sign-in is not configured")
)

// Reset code errors
var (
	ErrResetCodeInvalid = NewAuthError(KindValidation, "invalid reset code")
	ErrResetCodeExpired = NewAuthError(KindExpired, "reset code has expired")
	ErrResetLocked      = NewAuthError(KindLocked, "too many attempts, try again later")

	// ErrResetAttemptRaced means another attempt changed the counter first.
	ErrResetAttemptRaced = errors.New("reset attempt counter changed concurrently")
)

// Token errors
var (
	ErrTokenMalformed = NewAuthError(KindMalformedToken, "invalid token")
	ErrTokenExpired   = NewAuthError(KindExpiredToken, "token has expired")
	ErrUnknownRole    = NewAuthError(KindUnknownRole, "token carries an unknown role")
	ErrTokenStale     = NewAuthError(KindStalePassword, "password changed after token was issued, please log in again")
)

// Authorization errors
var (
	ErrForbidden   = NewAuthError(KindForbidden, "access denied")
	ErrRateLimited = NewAuthError(KindRateLimited, "too many attempts, try again later")
)

// ErrInternal wraps an infrastructure failure without leaking its details to callers.
func ErrInternal(op string, err error) *AuthError {
	return WrapAuthError(KindInternal, op+" failed", err)
}

// ErrValidation reports a rejected input field.
func ErrValidation(message string) *AuthError {
	return NewAuthError(KindValidation, message)
}
