package authcore

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	internalaudit "github.com/arcvale/authcore/internal/audit"
	"github.com/arcvale/authcore/lockout"
	"github.com/arcvale/authcore/password"
	"github.com/arcvale/authcore/store"
	"github.com/arcvale/authcore/token"
)

// Builder assembles a [Service]. Obtain one with [New], chain the With*
// setters and finish with [Builder.Build].
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	auditSink AuditSink
	now       func() time.Time
	built     bool
}

func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
		now:    time.Now,
	}
}

// WithConfig replaces the whole configuration. Zero-valued fields fall back
// to the defaults during Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the Redis client backing all persistence. Required.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink tees audit events into sink in addition to the persistent
// trail.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock replaces the time source. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	if now != nil {
		b.now = now
	}
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the service. A Builder is
// single-use.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	cfg := cloneConfig(b.config)
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	issuer, err := token.NewIssuer(token.Config{
		TTL:           cfg.Session.TTL,
		SigningMethod: token.SigningMethod(cfg.Session.SigningMethod),
		Secret:        cfg.Session.Secret,
		PrivateKey:    cfg.Session.PrivateKey,
		PublicKey:     cfg.Session.PublicKey,
		Issuer:        cfg.Session.Issuer,
	})
	if err != nil {
		return nil, err
	}
	issuer.WithClock(b.now)

	policy := lockout.Policy{
		MaxAttempts:  cfg.Lockout.MaxAttempts,
		LockDuration: cfg.Lockout.LockDuration,
	}

	storeOpts := store.Options{
		Prefix:     cfg.Store.KeyPrefix,
		OpTimeout:  cfg.Store.OpTimeout,
		CASRetries: cfg.Store.CASRetries,
		Lockout:    policy,
		Now:        b.now,
	}

	svc := &Service{
		config:   cfg,
		accounts: store.NewAccounts(b.redis, storeOpts),
		trail:    store.NewAuditLog(b.redis, storeOpts),
		hasher:   hasher,
		issuer:   issuer,
		metrics:  NewMetrics(cfg.Metrics),
		now:      b.now,
	}

	switch {
	case !cfg.Audit.Enabled:
		svc.sink = internalaudit.NoOpSink{}
	case b.auditSink != nil:
		svc.sink = internalaudit.MultiSink{svc.trail, b.auditSink}
	default:
		svc.sink = svc.trail
	}
	if cfg.Audit.Enabled && !cfg.Audit.Synchronous {
		svc.dispatcher = internalaudit.NewDispatcher(svc.sink, cfg.Audit.BufferSize, cfg.Audit.DropIfFull)
	}

	b.built = true

	return svc, nil
}
