package password

import (
	"errors"
	"unicode"
)

// MinLength is the smallest password length the strength policy accepts.
const MinLength = 8

var (
	ErrTooShort  = errors.New("password must be at least 8 characters long")
	ErrNoUpper   = errors.New("password must contain at least one uppercase letter")
	ErrNoLower   = errors.New("password must contain at least one lowercase letter")
	ErrNoDigit   = errors.New("password must contain at least one number")
	ErrNoSpecial = errors.New("password must contain at least one special character")
)

// ValidateStrength checks password against the registration policy: minimum
// length plus at least one uppercase letter, one lowercase letter, one digit
// and one character that is none of those. It returns the first violated rule.
func ValidateStrength(password string) error {
	if len(password) < MinLength {
		return ErrTooShort
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}

	switch {
	case !upper:
		return ErrNoUpper
	case !lower:
		return ErrNoLower
	case !digit:
		return ErrNoDigit
	case !special:
		return ErrNoSpecial
	}

	return nil
}
