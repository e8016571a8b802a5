package authcore

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Lockout.MaxAttempts != 5 {
		t.Fatalf("MaxAttempts = %d, want 5", cfg.Lockout.MaxAttempts)
	}
	if cfg.Lockout.LockDuration != 15*time.Minute {
		t.Fatalf("LockDuration = %v, want 15m", cfg.Lockout.LockDuration)
	}
	if cfg.Reset.TokenTTL != 30*time.Minute {
		t.Fatalf("TokenTTL = %v, want 30m", cfg.Reset.TokenTTL)
	}
	if cfg.Reset.TokenBytes != 32 {
		t.Fatalf("TokenBytes = %d, want 32", cfg.Reset.TokenBytes)
	}
}

func TestConfigApplyDefaultsFillsZeroes(t *testing.T) {
	var cfg Config
	cfg.Session.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.applyDefaults()

	if cfg.Lockout.LockDuration != 15*time.Minute {
		t.Fatalf("LockDuration = %v", cfg.Lockout.LockDuration)
	}
	if cfg.Store.KeyPrefix != "authcore" {
		t.Fatalf("KeyPrefix = %q", cfg.Store.KeyPrefix)
	}
	if cfg.Session.SigningMethod != "hs256" {
		t.Fatalf("SigningMethod = %q", cfg.Session.SigningMethod)
	}
	if cfg.Password.Memory == 0 {
		t.Fatal("password config not defaulted")
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate error: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults with secret",
			mutate:    func(c *Config) {},
			wantValid: true,
		},
		{
			name: "hs256 without secret",
			mutate: func(c *Config) {
				c.Session.Secret = nil
			},
			wantValid: false,
		},
		{
			name: "ed25519 without public key",
			mutate: func(c *Config) {
				c.Session.SigningMethod = "ed25519"
			},
			wantValid: false,
		},
		{
			name: "unsupported signing method",
			mutate: func(c *Config) {
				c.Session.SigningMethod = "rs256"
			},
			wantValid: false,
		},
		{
			name: "reset token bytes too small",
			mutate: func(c *Config) {
				c.Reset.TokenBytes = 8
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Session.Secret = []byte("0123456789abcdef0123456789abcdef")
			tc.mutate(&cfg)

			err := cfg.validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestBuildRequiresRedis(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.Secret = []byte("0123456789abcdef0123456789abcdef")

	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected Build to fail without redis")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	b := New().WithConfig(testConfig()).WithRedis(client)
	svc, err := b.Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	t.Cleanup(svc.Close)

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}
