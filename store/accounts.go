package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arcvale/authcore/lockout"
)

// Account is the persisted credential record. Version increments on every
// committed write; readers use it to detect concurrent modification.
type Account struct {
	ID             string       `json:"id"`
	Username       string       `json:"username"`
	Email          string       `json:"email"`
	FullName       string       `json:"full_name,omitempty"`
	PasswordHash   string       `json:"password_hash"`
	Role           string       `json:"role"`
	Active         bool         `json:"active"`
	FailedAttempts int          `json:"failed_attempts"`
	LockedUntil    time.Time    `json:"locked_until"`
	ResetTokens    []ResetToken `json:"reset_tokens,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	LastLogin      time.Time    `json:"last_login"`
	LastActivity   time.Time    `json:"last_activity"`
	Version        uint64       `json:"version"`
}

// ResetToken is a pending password reset credential owned by one account.
// Redemption removes the token from the account; Used guards against a
// record that survived removal.
type ResetToken struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used,omitempty"`
}

// Options configures an Accounts store.
type Options struct {
	// Prefix namespaces every key. Defaults to "authcore".
	Prefix string
	// OpTimeout bounds each store call. Defaults to 3 seconds.
	OpTimeout time.Duration
	// CASRetries is how many WATCH races a mutation absorbs before giving
	// up with ErrConflict. Defaults to 4.
	CASRetries int
	// Lockout is applied atomically inside Attempt.
	Lockout lockout.Policy
	// Now supplies the clock. Defaults to time.Now.
	Now func() time.Time
}

// Accounts is the Redis-backed account store. Safe for concurrent use.
type Accounts struct {
	redis      redis.UniversalClient
	prefix     string
	opTimeout  time.Duration
	casRetries int
	lockout    lockout.Policy
	now        func() time.Time
}

func NewAccounts(client redis.UniversalClient, opts Options) *Accounts {
	if opts.Prefix == "" {
		opts.Prefix = "authcore"
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 3 * time.Second
	}
	if opts.CASRetries <= 0 {
		opts.CASRetries = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Accounts{
		redis:      client,
		prefix:     opts.Prefix,
		opTimeout:  opts.OpTimeout,
		casRetries: opts.CASRetries,
		lockout:    opts.Lockout,
		now:        opts.Now,
	}
}

func (s *Accounts) accountKey(id string) string {
	return s.prefix + ":acct:" + id
}

func (s *Accounts) usernameKey(username string) string {
	return s.prefix + ":uname:" + strings.ToLower(username)
}

func (s *Accounts) emailKey(email string) string {
	return s.prefix + ":email:" + strings.ToLower(email)
}

func (s *Accounts) resetKey(token string) string {
	return s.prefix + ":reset:" + token
}

func (s *Accounts) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

// Create persists a new account and claims its username and email index
// entries in one transaction. Uniqueness races resolve to ErrUsernameTaken
// or ErrEmailTaken for the loser.
func (s *Accounts) Create(ctx context.Context, acct *Account) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	unameKey := s.usernameKey(acct.Username)
	emailKey := s.emailKey(acct.Email)

	for i := 0; i < s.casRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			if _, err := tx.Get(ctx, unameKey).Result(); err == nil {
				return ErrUsernameTaken
			} else if !errors.Is(err, redis.Nil) {
				return err
			}
			if _, err := tx.Get(ctx, emailKey).Result(); err == nil {
				return ErrEmailTaken
			} else if !errors.Is(err, redis.Nil) {
				return err
			}

			now := s.now()
			acct.CreatedAt = now
			acct.UpdatedAt = now
			acct.Version = 1

			encoded, err := json.Marshal(acct)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, s.accountKey(acct.ID), encoded, 0)
				pipe.Set(ctx, unameKey, acct.ID, 0)
				pipe.Set(ctx, emailKey, acct.ID, 0)
				return nil
			})
			return err
		}, unameKey, emailKey)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrEmailTaken):
				return err
			default:
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}
		return nil
	}

	return ErrConflict
}

// GetByID fetches an account by its ID.
func (s *Accounts) GetByID(ctx context.Context, id string) (*Account, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	return s.fetch(ctx, s.accountKey(id))
}

// GetByUsername resolves the username index and fetches the account.
func (s *Accounts) GetByUsername(ctx context.Context, username string) (*Account, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	id, err := s.resolveIndex(ctx, s.usernameKey(username))
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, s.accountKey(id))
}

// GetByEmail resolves the email index and fetches the account.
func (s *Accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	id, err := s.resolveIndex(ctx, s.emailKey(email))
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, s.accountKey(id))
}

func (s *Accounts) resolveIndex(ctx context.Context, key string) (string, error) {
	id, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return id, nil
}

func (s *Accounts) fetch(ctx context.Context, key string) (*Account, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decodeAccount(data)
}

func decodeAccount(data []byte) (*Account, error) {
	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, fmt.Errorf("corrupt account record: %w", err)
	}
	return &acct, nil
}

// withAccount loads the account under WATCH, hands it to fn and retries the
// whole transaction when another writer commits first. fn issues its own
// writes through tx.TxPipelined; returning a sentinel aborts the attempt.
// extraKeys are watched alongside the account key.
func (s *Accounts) withAccount(
	ctx context.Context,
	id string,
	fn func(tx *redis.Tx, acct *Account) error,
	extraKeys ...string,
) error {
	key := s.accountKey(id)
	watched := append([]string{key}, extraKeys...)

	for i := 0; i < s.casRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ErrNotFound
				}
				return err
			}
			acct, err := decodeAccount(data)
			if err != nil {
				return err
			}
			return fn(tx, acct)
		}, watched...)

		if err == redis.TxFailedErr {
			continue
		}
		return err
	}

	return ErrConflict
}

// saveInTx writes the account through the transaction pipeline with its
// version bumped and UpdatedAt refreshed.
func (s *Accounts) saveInTx(ctx context.Context, tx *redis.Tx, acct *Account, extra func(pipe redis.Pipeliner)) error {
	acct.Version++
	acct.UpdatedAt = s.now()

	encoded, err := json.Marshal(acct)
	if err != nil {
		return err
	}

	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.accountKey(acct.ID), encoded, 0)
		if extra != nil {
			extra(pipe)
		}
		return nil
	})
	return err
}

// wrapTransient maps anything that is not one of the store's domain sentinels
// onto ErrUnavailable.
func wrapTransient(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUsernameTaken),
		errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrConflict):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
