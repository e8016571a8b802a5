package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arcvale/authcore/internal/audit"
)

// AuditLog persists audit events in Redis as an append-only list. Events get
// a sequence number from a monotonic counter so readers can totally order
// records that share a timestamp.
//
// AuditLog implements [audit.Sink]; emitted write failures are absorbed,
// logged and counted rather than surfaced to the login path.
type AuditLog struct {
	redis         redis.UniversalClient
	prefix        string
	opTimeout     time.Duration
	now           func() time.Time
	writeFailures atomic.Uint64
}

func NewAuditLog(client redis.UniversalClient, opts Options) *AuditLog {
	if opts.Prefix == "" {
		opts.Prefix = "authcore"
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 3 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AuditLog{
		redis:     client,
		prefix:    opts.Prefix,
		opTimeout: opts.OpTimeout,
		now:       opts.Now,
	}
}

func (l *AuditLog) seqKey() string { return l.prefix + ":audit:seq" }
func (l *AuditLog) logKey() string { return l.prefix + ":audit:log" }

func (l *AuditLog) userKey(username string) string {
	return l.prefix + ":audit:user:" + strings.ToLower(username)
}

// Append assigns the next sequence number and writes the event. The event's
// Timestamp is filled from the store clock when unset.
func (l *AuditLog) Append(ctx context.Context, event audit.Event) error {
	ctx, cancel := context.WithTimeout(ctx, l.opTimeout)
	defer cancel()

	seq, err := l.redis.Incr(ctx, l.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	event.Seq = uint64(seq)
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}

	encoded, err := json.Marshal(event)
	if err != nil {
		return err
	}
	pipe := l.redis.Pipeline()
	pipe.LPush(ctx, l.logKey(), encoded)
	if event.Username != "" {
		pipe.LPush(ctx, l.userKey(event.Username), encoded)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Recent returns up to limit events across all accounts ordered newest
// first by (Timestamp, Seq). limit <= 0 returns everything.
func (l *AuditLog) Recent(ctx context.Context, limit int) ([]audit.Event, error) {
	return l.readList(ctx, l.logKey(), limit)
}

// RecentFor returns up to limit events recorded for username, newest first
// by (Timestamp, Seq). The list survives deletion of the account itself.
func (l *AuditLog) RecentFor(ctx context.Context, username string, limit int) ([]audit.Event, error) {
	return l.readList(ctx, l.userKey(username), limit)
}

func (l *AuditLog) readList(ctx context.Context, key string, limit int) ([]audit.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opTimeout)
	defer cancel()

	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	raw, err := l.redis.LRange(ctx, key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	events := make([]audit.Event, 0, len(raw))
	for _, item := range raw {
		var e audit.Event
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("corrupt audit record: %w", err)
		}
		events = append(events, e)
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.After(events[j].Timestamp)
		}
		return events[i].Seq > events[j].Seq
	})
	return events, nil
}

// Emit implements audit.Sink. Append failures never propagate.
func (l *AuditLog) Emit(ctx context.Context, event audit.Event) {
	if err := l.Append(ctx, event); err != nil {
		l.writeFailures.Add(1)
		log.Print("authcore: audit append failed: ", err)
	}
}

// WriteFailures reports how many emitted events failed to persist.
func (l *AuditLog) WriteFailures() uint64 {
	return l.writeFailures.Load()
}
