package authcore

import (
	"errors"
	"time"
)

// Config carries every tunable of the service. Instances are configured
// during initialization and treated as immutable afterwards.
type Config struct {
	Lockout  LockoutConfig
	Reset    ResetConfig
	Password PasswordConfig
	Session  SessionConfig
	Store    StoreConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig controls the brute-force lockout. MaxAttempts consecutive
// failures lock the account for LockDuration; MaxAttempts 0 disables locking.
type LockoutConfig struct {
	MaxAttempts  int
	LockDuration time.Duration
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

// ResetConfig controls password reset token issuance.
type ResetConfig struct {
	TokenTTL   time.Duration
	TokenBytes int
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig carries the argon2id cost parameters.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the session tokens minted on login.
type SessionConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	Secret        []byte
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig controls the Redis persistence layer.
type StoreConfig struct {
	KeyPrefix  string
	OpTimeout  time.Duration
	CASRetries int
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the audit trail. Synchronous forces events through
// the sink on the caller's goroutine; the default is async dispatch.
type AuditConfig struct {
	Enabled     bool
	BufferSize  int
	DropIfFull  bool
	Synchronous bool
	// RecentLimit caps how many events AuditLog returns by default.
	RecentLimit int
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults: five failures lock for
// fifteen minutes, reset tokens live thirty minutes, sessions one hour.
func DefaultConfig() Config {
	return Config{
		Lockout: LockoutConfig{
			MaxAttempts:  5,
			LockDuration: 15 * time.Minute,
		},
		Reset: ResetConfig{
			TokenTTL:   30 * time.Minute,
			TokenBytes: 32,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Session: SessionConfig{
			TTL:           time.Hour,
			SigningMethod: "hs256",
			Issuer:        "authcore",
		},
		Store: StoreConfig{
			KeyPrefix:  "authcore",
			OpTimeout:  3 * time.Second,
			CASRetries: 4,
		},
		Audit: AuditConfig{
			Enabled:     true,
			BufferSize:  256,
			DropIfFull:  true,
			RecentLimit: 100,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Lockout.MaxAttempts < 0 {
		c.Lockout.MaxAttempts = 0
	}
	if c.Lockout.LockDuration <= 0 {
		c.Lockout.LockDuration = def.Lockout.LockDuration
	}
	if c.Reset.TokenTTL <= 0 {
		c.Reset.TokenTTL = def.Reset.TokenTTL
	}
	if c.Reset.TokenBytes <= 0 {
		c.Reset.TokenBytes = def.Reset.TokenBytes
	}
	if c.Password == (PasswordConfig{}) {
		c.Password = def.Password
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = def.Session.TTL
	}
	if c.Session.SigningMethod == "" {
		c.Session.SigningMethod = def.Session.SigningMethod
	}
	if c.Session.Issuer == "" {
		c.Session.Issuer = def.Session.Issuer
	}
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = def.Store.KeyPrefix
	}
	if c.Store.OpTimeout <= 0 {
		c.Store.OpTimeout = def.Store.OpTimeout
	}
	if c.Store.CASRetries <= 0 {
		c.Store.CASRetries = def.Store.CASRetries
	}
	if c.Audit.BufferSize <= 0 {
		c.Audit.BufferSize = def.Audit.BufferSize
	}
	if c.Audit.RecentLimit <= 0 {
		c.Audit.RecentLimit = def.Audit.RecentLimit
	}
}

// cloneConfig deep-copies the byte-slice fields so a built service is
// insulated from later mutation of the caller's Config.
func cloneConfig(c Config) Config {
	out := c
	out.Session.Secret = append([]byte(nil), c.Session.Secret...)
	out.Session.PrivateKey = append([]byte(nil), c.Session.PrivateKey...)
	out.Session.PublicKey = append([]byte(nil), c.Session.PublicKey...)
	return out
}

func (c *Config) validate() error {
	if c.Reset.TokenBytes < 16 {
		return errors.New("reset token bytes must be >= 16")
	}
	switch c.Session.SigningMethod {
	case "hs256":
		if len(c.Session.Secret) == 0 {
			return errors.New("session secret required for hs256")
		}
		if len(c.Session.Secret) < 32 {
			return errors.New("hs256 session secret must be at least 256 bits")
		}
	case "ed25519":
		if len(c.Session.PublicKey) == 0 {
			return errors.New("session public key required for ed25519")
		}
	default:
		return errors.New("unsupported session signing method")
	}
	return nil
}
