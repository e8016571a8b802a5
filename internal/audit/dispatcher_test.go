package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDispatcherDeliversAndDrains(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(sink, 8, false)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{EventType: "login_success"})
	}
	d.Close()

	delivered := 0
	for {
		select {
		case <-sink.Events():
			delivered++
			if delivered == 5 {
				return
			}
		case <-time.After(time.Second):
			t.Fatalf("expected 5 events delivered, got %d", delivered)
		}
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	sink := sinkFunc(func(ctx context.Context, e Event) { <-block })
	d := NewDispatcher(sink, 1, true)
	defer func() {
		close(block)
		d.Close()
	}()

	// First event occupies the worker, second fills the buffer, the rest drop.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: "failed_login"})
	}

	deadline := time.Now().Add(time.Second)
	for d.Dropped() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected dropped events to be counted")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestDispatcherNilSafe(t *testing.T) {
	var d *Dispatcher
	d.Emit(context.Background(), Event{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher should report zero drops")
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	a := NewChannelSink(1)
	b := NewChannelSink(1)
	m := MultiSink{a, nil, b}

	m.Emit(context.Background(), Event{EventType: "role_changed"})

	select {
	case <-a.Events():
	default:
		t.Fatal("first sink did not receive the event")
	}
	select {
	case <-b.Events():
	default:
		t.Fatal("second sink did not receive the event")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{
		Seq:       7,
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		EventType: "password_reset_success",
		Username:  "alice",
		Success:   true,
	})

	line := strings.TrimSpace(buf.String())
	var got Event
	if err := json.Unmarshal([]byte(line), &got); err != nil {
		t.Fatalf("unmarshal sink output: %v", err)
	}
	if got.Seq != 7 || got.EventType != "password_reset_success" || got.Username != "alice" || !got.Success {
		t.Fatalf("unexpected event round-trip: %+v", got)
	}
}

type sinkFunc func(ctx context.Context, e Event)

func (f sinkFunc) Emit(ctx context.Context, e Event) { f(ctx, e) }
