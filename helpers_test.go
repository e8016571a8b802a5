package authcore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// svcClock is a mutable time source shared between a test and the service.
type svcClock struct {
	now time.Time
}

func newSvcClock() *svcClock {
	return &svcClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *svcClock) Now() time.Time { return c.now }

func (c *svcClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Session.Secret = []byte("0123456789abcdef0123456789abcdef")
	// Cheap argon2 parameters keep the suite fast.
	cfg.Password = PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
	// Synchronous audit makes event assertions deterministic.
	cfg.Audit.Synchronous = true
	return cfg
}

func newTestService(t *testing.T) (*Service, *svcClock) {
	t.Helper()
	return newTestServiceWithConfig(t, testConfig())
}

func newTestServiceWithConfig(t *testing.T, cfg Config) (*Service, *svcClock) {
	t.Helper()
	return newTestServiceWithConfigAndSink(t, cfg, nil)
}

func newTestServiceWithConfigAndSink(t *testing.T, cfg Config, sink AuditSink) (*Service, *svcClock) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := newSvcClock()
	b := New().
		WithConfig(cfg).
		WithRedis(client).
		WithClock(clock.Now)
	if sink != nil {
		b = b.WithAuditSink(sink)
	}
	svc, err := b.Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	t.Cleanup(svc.Close)

	return svc, clock
}

func registerAlice(t *testing.T, svc *Service) *Account {
	t.Helper()

	acct, err := svc.Register(context.Background(), RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Corr3ct-Horse!",
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	return acct
}

func failLogin(t *testing.T, svc *Service, username string, times int) {
	t.Helper()

	for i := 0; i < times; i++ {
		if _, err := svc.Login(context.Background(), username, "Wr0ng-Pass!x"); err == nil {
			t.Fatalf("attempt %d: expected login to fail", i+1)
		}
	}
}

func findEvents(t *testing.T, svc *Service, eventType string) []AuditEvent {
	t.Helper()

	events, err := svc.AuditLog(context.Background(), 0)
	if err != nil {
		t.Fatalf("AuditLog error: %v", err)
	}
	var out []AuditEvent
	for _, e := range events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
