package domain

import (
	"net/mail"
	"strings"
	"unicode"
)

const (
	// MinPasswordLength is the shortest secret accepted by ValidatePassword.
	MinPasswordLength = 8
	// MaxPasswordBytes is the longest input bcrypt will hash.
	MaxPasswordBytes = 72
)

// ValidatePassword enforces the password policy: at least eight characters,
// at most 72 bytes, with an uppercase letter, a lowercase letter and a digit.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrValidation("password must be at least 8 characters long")
	}
	if len(password) > MaxPasswordBytes {
		return ErrValidation("password must be at most 72 bytes long")
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	switch {
	case !upper:
		return ErrValidation("password must contain at least one uppercase letter")
	case !lower:
		return ErrValidation("password must contain at least one lowercase letter")
	case !digit:
		return ErrValidation("password must contain at least one number")
	}
	return nil
}

// NormalizeEmail trims and lowercases a login identifier.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail rejects identifiers that are not a bare email address.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrValidation("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrValidation("email is not a valid address")
	}
	return nil
}
