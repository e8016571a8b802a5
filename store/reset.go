package store

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// AppendResetToken records a pending reset token for the account that owns
// email. Expired siblings are pruned in the same write; issuing a new token
// does not invalidate other live ones. The token locator key carries the
// same TTL so an expired token can never be resolved.
func (s *Accounts) AppendResetToken(ctx context.Context, email, token string, ttl time.Duration) (*Account, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	id, err := s.resolveIndex(ctx, s.emailKey(email))
	if err != nil {
		return nil, err
	}

	var out *Account
	err = s.withAccount(ctx, id, func(tx *redis.Tx, acct *Account) error {
		now := s.now()

		live := acct.ResetTokens[:0]
		for _, rt := range acct.ResetTokens {
			if rt.ExpiresAt.After(now) && !rt.Used {
				live = append(live, rt)
			}
		}
		acct.ResetTokens = append(live, ResetToken{
			Token:     token,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		})

		err := s.saveInTx(ctx, tx, acct, func(pipe redis.Pipeliner) {
			pipe.Set(ctx, s.resetKey(token), acct.ID, ttl)
		})
		if err != nil {
			return err
		}
		out = acct
		return nil
	})
	if err != nil {
		return nil, wrapTransient(err)
	}
	return out, nil
}

// Redeem consumes a reset token and installs newHash as the account's
// password in one transaction. Redemption also clears the failure counter and
// any active lock, and deletes the token so a second redemption of the same
// token fails. Every failure mode collapses into ErrTokenInvalid.
func (s *Accounts) Redeem(ctx context.Context, token, newHash string) (*Account, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	locator := s.resetKey(token)
	id, err := s.resolveIndex(ctx, locator)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	var out *Account
	err = s.withAccount(ctx, id, func(tx *redis.Tx, acct *Account) error {
		now := s.now()

		matched := -1
		for i, rt := range acct.ResetTokens {
			if subtle.ConstantTimeCompare([]byte(rt.Token), []byte(token)) == 1 {
				if rt.ExpiresAt.After(now) && !rt.Used {
					matched = i
				}
				break
			}
		}
		if matched < 0 {
			// Stale locator for a token the record no longer honors.
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, locator)
				return nil
			})
			if err != nil {
				return err
			}
			return ErrTokenInvalid
		}

		acct.ResetTokens = append(acct.ResetTokens[:matched], acct.ResetTokens[matched+1:]...)
		acct.PasswordHash = newHash
		acct.FailedAttempts = 0
		acct.LockedUntil = time.Time{}
		acct.LastActivity = now

		err := s.saveInTx(ctx, tx, acct, func(pipe redis.Pipeliner) {
			pipe.Del(ctx, locator)
		})
		if err != nil {
			return err
		}
		out = acct
		return nil
	}, locator)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, wrapTransient(err)
	}
	return out, nil
}
