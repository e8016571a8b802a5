package lockout

import "time"

// Policy holds the lockout thresholds applied to failed credential checks.
//
// Policy instances are intended to be configured during initialization and
// then treated as immutable.
type Policy struct {
	// MaxAttempts is the number of consecutive failures that transitions an
	// account into the locked state.
	MaxAttempts int

	// LockDuration is how long a transition keeps the account locked.
	LockDuration time.Duration
}

// State is the access decision for an authentication attempt.
type State int

const (
	// StateAllow permits the attempt to proceed to credential verification.
	StateAllow State = iota
	// StateLocked denies the attempt outright, regardless of the credential.
	StateLocked
)

// Decision is the outcome of evaluating a policy against an account's
// failure counter and lock expiry.
type Decision struct {
	State State

	// Remaining is how long the lock has left. Set only for StateLocked.
	Remaining time.Duration

	// ResetCounter reports that a previously set lock expiry has lapsed and
	// the caller must clear both the expiry and the failure counter before
	// proceeding. Set only for StateAllow.
	ResetCounter bool
}

// Evaluate translates (failedAttempts, lockedUntil, now) into an access
// decision. Expiry is lazy: a lock that has passed is not honored, and the
// decision instructs the caller to reset the counter so the account gets a
// fresh attempt cycle.
func (p Policy) Evaluate(lockedUntil time.Time, now time.Time) Decision {
	if lockedUntil.IsZero() {
		return Decision{State: StateAllow}
	}
	if lockedUntil.After(now) {
		return Decision{State: StateLocked, Remaining: lockedUntil.Sub(now)}
	}
	return Decision{State: StateAllow, ResetCounter: true}
}

// OnFailure computes the counter and lock expiry after one more failed
// attempt. The returned lockedUntil is zero unless this failure reaches
// MaxAttempts, in which case it is strictly in the future (now + LockDuration).
func (p Policy) OnFailure(failedAttempts int, now time.Time) (int, time.Time) {
	failedAttempts++
	if p.MaxAttempts > 0 && failedAttempts >= p.MaxAttempts {
		return failedAttempts, now.Add(p.LockDuration)
	}
	return failedAttempts, time.Time{}
}
