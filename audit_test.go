package authcore

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func TestAuditTrailTotalOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registerAlice(t, svc)
	failLogin(t, svc, "alice", 2)
	if _, err := svc.Login(ctx, "alice", "Corr3ct-Horse!"); err != nil {
		t.Fatalf("Login error: %v", err)
	}

	events, err := svc.AuditLog(ctx, 0)
	if err != nil {
		t.Fatalf("AuditLog error: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}

	// Newest first, sequence strictly decreasing.
	for i := 1; i < len(events); i++ {
		if events[i].Seq >= events[i-1].Seq {
			t.Fatalf("sequence not strictly decreasing at %d: %d then %d",
				i, events[i-1].Seq, events[i].Seq)
		}
		if events[i].Timestamp.After(events[i-1].Timestamp) {
			t.Fatalf("timestamp order violated at %d", i)
		}
	}
	if events[0].EventType != EventLoginSuccess {
		t.Fatalf("expected newest event login_success, got %s", events[0].EventType)
	}
	if events[len(events)-1].EventType != EventUserRegistration {
		t.Fatalf("expected oldest event user_registration, got %s",
			events[len(events)-1].EventType)
	}
}

func TestAuditLogForScopedToUsername(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registerAlice(t, svc)
	if _, err := svc.Register(ctx, RegisterRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "Corr3ct-Horse!",
	}); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	failLogin(t, svc, "bob", 2)

	events, err := svc.AuditLogFor(ctx, "bob", 0)
	if err != nil {
		t.Fatalf("AuditLogFor error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 bob events, got %d", len(events))
	}
	for _, e := range events {
		if e.Username != "bob" {
			t.Fatalf("foreign event in bob's trail: %+v", e)
		}
	}
	if events[0].EventType != EventFailedLogin {
		t.Fatalf("expected newest event failed_login, got %s", events[0].EventType)
	}
	if events[len(events)-1].EventType != EventUserRegistration {
		t.Fatalf("expected oldest event user_registration, got %s",
			events[len(events)-1].EventType)
	}
}

func TestAuditCustomSinkTee(t *testing.T) {
	cfg := testConfig()
	sink := &countingSink{}

	svc, _ := newTestServiceWithConfigAndSink(t, cfg, sink)
	ctx := context.Background()

	registerAlice(t, svc)

	// The event reaches both the custom sink and the persistent trail.
	if sink.count.Load() != 1 {
		t.Fatalf("custom sink saw %d events, want 1", sink.count.Load())
	}
	events, err := svc.AuditLog(ctx, 0)
	if err != nil {
		t.Fatalf("AuditLog error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("trail holds %d events, want 1", len(events))
	}
}

func TestAuditAsyncDispatchDelivers(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Synchronous = false

	svc, _ := newTestServiceWithConfig(t, cfg)
	ctx := context.Background()

	registerAlice(t, svc)

	// Close drains the dispatcher, so the event must be persisted after it.
	svc.Close()

	events, err := svc.AuditLog(ctx, 0)
	if err != nil {
		t.Fatalf("AuditLog error: %v", err)
	}
	if len(events) != 1 || events[0].EventType != EventUserRegistration {
		t.Fatalf("expected drained registration event, got %+v", events)
	}
}

func TestAuditDisabledRecordsNothing(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Enabled = false

	svc, _ := newTestServiceWithConfig(t, cfg)
	ctx := context.Background()

	registerAlice(t, svc)

	events, err := svc.AuditLog(ctx, 0)
	if err != nil {
		t.Fatalf("AuditLog error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected empty trail, got %d events", len(events))
	}
}

func TestAuditEventsCarryClientIP(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registerAlice(t, svc)

	ipCtx := WithClientIP(ctx, "203.0.113.7")
	if _, err := svc.Login(ipCtx, "alice", "Wr0ng-Pass!x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	failed := findEvents(t, svc, EventFailedLogin)
	if len(failed) != 1 || failed[0].IP != "203.0.113.7" {
		t.Fatalf("expected failed_login with caller IP, got %+v", failed)
	}
}

func TestAuditEventTimestampsUseServiceClock(t *testing.T) {
	svc, clock := newTestService(t)

	registerAlice(t, svc)
	clock.Advance(time.Hour)
	failLogin(t, svc, "alice", 1)

	failed := findEvents(t, svc, EventFailedLogin)
	if len(failed) != 1 {
		t.Fatalf("expected 1 failed_login, got %d", len(failed))
	}
	if !failed[0].Timestamp.Equal(clock.Now()) {
		t.Fatalf("timestamp %v does not match clock %v", failed[0].Timestamp, clock.Now())
	}
}
