package store

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ProfileUpdate carries the mutable profile fields. Nil pointers leave the
// field untouched.
type ProfileUpdate struct {
	Email    *string
	FullName *string
}

// UpdateProfile applies the update to the account. Changing the email swaps
// the index entries in the same transaction and fails with ErrEmailTaken if
// another account already claimed the new address.
func (s *Accounts) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*Account, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var watchExtra []string
	if update.Email != nil {
		watchExtra = append(watchExtra, s.emailKey(*update.Email))
	}

	var out *Account
	err := s.withAccount(ctx, id, func(tx *redis.Tx, acct *Account) error {
		oldEmailKey := s.emailKey(acct.Email)
		newEmailKey := oldEmailKey
		if update.Email != nil && !strings.EqualFold(*update.Email, acct.Email) {
			newEmailKey = s.emailKey(*update.Email)
			owner, err := tx.Get(ctx, newEmailKey).Result()
			if err == nil && owner != acct.ID {
				return ErrEmailTaken
			}
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			acct.Email = *update.Email
		}
		if update.FullName != nil {
			acct.FullName = *update.FullName
		}
		acct.LastActivity = s.now()

		err := s.saveInTx(ctx, tx, acct, func(pipe redis.Pipeliner) {
			if newEmailKey != oldEmailKey {
				pipe.Del(ctx, oldEmailKey)
				pipe.Set(ctx, newEmailKey, acct.ID, 0)
			}
		})
		if err != nil {
			return err
		}
		out = acct
		return nil
	}, watchExtra...)
	if err != nil {
		return nil, wrapTransient(err)
	}
	return out, nil
}

// SetRole replaces the account's role.
func (s *Accounts) SetRole(ctx context.Context, id, role string) (*Account, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var out *Account
	err := s.withAccount(ctx, id, func(tx *redis.Tx, acct *Account) error {
		acct.Role = role
		acct.LastActivity = s.now()
		if err := s.saveInTx(ctx, tx, acct, nil); err != nil {
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

// SetActive toggles the account's active flag. Deactivated accounts fail
// login with an inactive outcome even when the password matches.
func (s *Accounts) SetActive(ctx context.Context, id string, active bool) (*Account, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var out *Account
	err := s.withAccount(ctx, id, func(tx *redis.Tx, acct *Account) error {
		acct.Active = active
		if err := s.saveInTx(ctx, tx, acct, nil); err != nil {
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

// Delete removes the account together with its index entries and any pending
// reset token locators.
func (s *Accounts) Delete(ctx context.Context, id string) (*Account, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var out *Account
	err := s.withAccount(ctx, id, func(tx *redis.Tx, acct *Account) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, s.accountKey(acct.ID))
			pipe.Del(ctx, s.usernameKey(acct.Username))
			pipe.Del(ctx, s.emailKey(acct.Email))
			for _, rt := range acct.ResetTokens {
				pipe.Del(ctx, s.resetKey(rt.Token))
			}
			return nil
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
