package authcore

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials covers unknown usernames and wrong passwords so
	// callers cannot probe which usernames exist.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAccountLocked reports a login refused because the account is held
	// by an active lockout. Returned wrapped in a [LockoutError].
	ErrAccountLocked = errors.New("account locked")
	// ErrAccountInactive reports a login refused because the account is
	// deactivated.
	ErrAccountInactive = errors.New("account inactive")
	// ErrAccountNotFound reports a missing account on an operation that is
	// allowed to reveal existence.
	ErrAccountNotFound = errors.New("account not found")
	// ErrUsernameTaken reports a registration uniqueness violation.
	ErrUsernameTaken = errors.New("username already registered")
	// ErrEmailTaken reports a registration or profile uniqueness violation.
	ErrEmailTaken = errors.New("email already registered")
	// ErrRegistrationInvalid reports a malformed registration request.
	ErrRegistrationInvalid = errors.New("invalid registration request")
	// ErrPasswordPolicy reports a password rejected by the strength policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrResetTokenInvalid covers unknown, expired and already redeemed
	// reset tokens. Callers must not distinguish between those cases.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
	// ErrRoleInvalid reports a role outside the known set.
	ErrRoleInvalid = errors.New("invalid role")
	// ErrSessionInvalid reports a session token that failed verification.
	ErrSessionInvalid = errors.New("invalid session token")
	// ErrStoreUnavailable wraps transient storage failures.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrServiceNotReady reports use of a Service that was not built.
	ErrServiceNotReady = errors.New("service not initialized")
)

// LockoutError carries how long the active lockout still holds. It matches
// ErrAccountLocked under errors.Is.
type LockoutError struct {
	Remaining time.Duration
}

func (e *LockoutError) Error() string {
	minutes := int(e.Remaining.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("account locked, try again in %d minutes", minutes)
}

func (e *LockoutError) Is(target error) bool {
	return target == ErrAccountLocked
}
