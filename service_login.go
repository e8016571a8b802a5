package authcore

import (
	"context"
	"fmt"
	"time"
)

// Login verifies the credentials and mints a session token. The lockout
// check, password verification and counter mutation commit as one atomic
// store transaction, so concurrent attempts against the same account cannot
// skip past the lock threshold.
//
// Unknown usernames and wrong passwords both return ErrInvalidCredentials. A
// locked account returns a [LockoutError]; the fifth consecutive failure,
// which installs the lock, still reports ErrInvalidCredentials so the caller
// that triggered the lock learns nothing extra.
func (s *Service) Login(ctx context.Context, username, pwd string) (*Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	start := time.Now()

	res, err := s.accounts.Attempt(ctx, username, func(hash string) bool {
		ok, err := s.hasher.Verify(pwd, hash)
		return err == nil && ok
	})
	if err != nil {
		translated := translateStoreErr(err)
		if translated == ErrAccountNotFound {
			s.metrics.Inc(MetricLoginFailure)
			s.emitAudit(ctx, EventFailedLogin, username, false, "unknown username")
			return nil, ErrInvalidCredentials
		}
		return nil, translated
	}

	switch res.Outcome {
	case AttemptSuccess:
		signed, expiresAt, err := s.issuer.Issue(res.Account.ID, res.Account.Username)
		if err != nil {
			return nil, err
		}
		s.metrics.Inc(MetricLoginSuccess)
		s.metrics.Observe(MetricLoginLatency, time.Since(start))
		s.emitAudit(ctx, EventLoginSuccess, res.Account.Username, true, "")
		return &Session{
			Token:     signed,
			ExpiresAt: expiresAt,
			Account:   sanitize(res.Account),
		}, nil

	case AttemptWrongPassword:
		s.metrics.Inc(MetricLoginFailure)
		s.emitAudit(ctx, EventFailedLogin, res.Account.Username, false,
			fmt.Sprintf("Failed attempt %d/%d",
				res.Account.FailedAttempts, s.config.Lockout.MaxAttempts))
		return nil, ErrInvalidCredentials

	case AttemptTransitionedToLock:
		s.metrics.Inc(MetricLoginFailure)
		s.emitAudit(ctx, EventAccountLocked, res.Account.Username, false,
			fmt.Sprintf("Account locked after %d failed attempts",
				res.Account.FailedAttempts))
		// The attempt that installs the lock reports plain invalid
		// credentials; only subsequent attempts see the lockout.
		return nil, ErrInvalidCredentials

	case AttemptLocked:
		s.metrics.Inc(MetricLoginLocked)
		s.emitAudit(ctx, EventLoginAttemptLocked, res.Account.Username, false, "")
		return nil, &LockoutError{Remaining: res.Remaining}

	case AttemptInactive:
		s.metrics.Inc(MetricLoginInactive)
		s.emitAudit(ctx, EventLoginAttemptInactive, res.Account.Username, false, "")
		return nil, ErrAccountInactive

	default:
		return nil, fmt.Errorf("unexpected login outcome %d", res.Outcome)
	}
}
