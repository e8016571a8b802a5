package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/arcvale/authcore/lockout"
)

const resetTTL = 30 * time.Minute

func newTestRedis(t *testing.T) redis.UniversalClient {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

// testClock is a mutable time source shared between a test and the store.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestAccounts(t *testing.T) (*Accounts, *testClock) {
	t.Helper()

	clock := newTestClock()
	accounts := NewAccounts(newTestRedis(t), Options{
		Prefix: "test",
		Lockout: lockout.Policy{
			MaxAttempts:  5,
			LockDuration: 15 * time.Minute,
		},
		Now: clock.Now,
	})
	return accounts, clock
}

func seedAccount(t *testing.T, accounts *Accounts, id, username, email string) *Account {
	t.Helper()

	acct := &Account{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "digest-" + id,
		Role:         "user",
		Active:       true,
	}
	if err := accounts.Create(context.Background(), acct); err != nil {
		t.Fatalf("Create(%s) error: %v", username, err)
	}
	return acct
}
