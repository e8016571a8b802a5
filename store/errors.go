package store

import "errors"

var (
	// ErrNotFound reports that no account matched the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrUsernameTaken reports a uniqueness violation on the username index.
	ErrUsernameTaken = errors.New("username already registered")
	// ErrEmailTaken reports a uniqueness violation on the email index.
	ErrEmailTaken = errors.New("email already registered")
	// ErrTokenInvalid covers every reset token failure: unknown, expired or
	// already redeemed. Callers must not distinguish between these.
	ErrTokenInvalid = errors.New("reset token invalid")
	// ErrConflict reports that a transaction kept losing WATCH races after
	// exhausting its retries.
	ErrConflict = errors.New("account modified concurrently")
	// ErrUnavailable wraps transient Redis failures so callers can tell an
	// outage apart from a domain refusal.
	ErrUnavailable = errors.New("store unavailable")
)
