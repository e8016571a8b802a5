package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arcvale/authcore/lockout"
)

// AttemptOutcome classifies the result of a login attempt.
type AttemptOutcome int

const (
	// AttemptSuccess means the password matched and the failure counter was
	// reset.
	AttemptSuccess AttemptOutcome = iota
	// AttemptWrongPassword means the password did not match and the failure
	// counter was incremented without reaching the lock threshold.
	AttemptWrongPassword
	// AttemptTransitionedToLock means this failure was the one that locked
	// the account.
	AttemptTransitionedToLock
	// AttemptLocked means the account was already locked; nothing was
	// mutated.
	AttemptLocked
	// AttemptInactive means the password matched but the account is
	// deactivated.
	AttemptInactive
)

// AttemptResult carries the outcome of a login attempt. Account is the state
// after the transaction committed; Remaining is set only for AttemptLocked.
type AttemptResult struct {
	Outcome   AttemptOutcome
	Account   *Account
	Remaining time.Duration
}

// Attempt runs a full login attempt against the named account in one
// transaction: lockout evaluation, password verification through the verify
// callback, and the resulting counter or lock mutation all commit atomically.
// Concurrent attempts against the same account serialize through the WATCH
// retry, so two racing failures cannot both observe the same counter value.
//
// An unknown username returns ErrNotFound with no verify call.
func (s *Accounts) Attempt(ctx context.Context, username string, verify func(hash string) bool) (*AttemptResult, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	id, err := s.resolveIndex(ctx, s.usernameKey(username))
	if err != nil {
		return nil, err
	}

	var result AttemptResult
	err = s.withAccount(ctx, id, func(tx *redis.Tx, acct *Account) error {
		now := s.now()

		decision := s.lockout.Evaluate(acct.LockedUntil, now)
		if decision.State == lockout.StateLocked {
			result = AttemptResult{
				Outcome:   AttemptLocked,
				Account:   acct,
				Remaining: decision.Remaining,
			}
			return nil
		}
		if decision.ResetCounter {
			// The lock lapsed since the last write; the counter restarts.
			acct.FailedAttempts = 0
			acct.LockedUntil = time.Time{}
		}

		if !verify(acct.PasswordHash) {
			attempts, lockedUntil := s.lockout.OnFailure(acct.FailedAttempts, now)
			acct.FailedAttempts = attempts
			acct.LockedUntil = lockedUntil

			outcome := AttemptWrongPassword
			if !lockedUntil.IsZero() {
				outcome = AttemptTransitionedToLock
			}
			if err := s.saveInTx(ctx, tx, acct, nil); err != nil {
				return err
			}
			result = AttemptResult{Outcome: outcome, Account: acct}
			return nil
		}

		if !acct.Active {
			result = AttemptResult{Outcome: AttemptInactive, Account: acct}
			return nil
		}

		acct.FailedAttempts = 0
		acct.LockedUntil = time.Time{}
		acct.LastLogin = now
		acct.LastActivity = now
		if err := s.saveInTx(ctx, tx, acct, nil); err != nil {
			return err
		}
		result = AttemptResult{Outcome: AttemptSuccess, Account: acct}
		return nil
	})
	if err != nil {
		return nil, wrapTransient(err)
	}

	return &result, nil
}
