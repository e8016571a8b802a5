package authcore

import (
	"fmt"
	"strings"
	"time"
)

// LintSeverity ranks configuration warnings.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintLow
	LintMedium
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintLow:
		return "LOW"
	case LintMedium:
		return "MEDIUM"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is a single advisory finding about a Config. Warnings never
// block Build; callers decide what to enforce via AsError.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings is the result of Config.Lint.
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns the warnings at or above the given severity.
func (ws LintWarnings) BySeverity(min LintSeverity) LintWarnings {
	var out LintWarnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError returns an error listing the warnings at or above the given
// severity, or nil if there are none.
func (ws LintWarnings) AsError(min LintSeverity) error {
	matched := ws.BySeverity(min)
	if len(matched) == 0 {
		return nil
	}
	return fmt.Errorf("config lint: %s", strings.Join(matched.Codes(), ", "))
}

// Lint inspects the config for settings that are legal but weaken the
// security posture. It assumes defaults have already been applied.
func (c Config) Lint() LintWarnings {
	var ws LintWarnings

	warn := func(code string, sev LintSeverity, format string, args ...any) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if c.Lockout.MaxAttempts == 0 {
		warn("lockout_disabled", LintHigh, "brute-force lockout is disabled")
	} else if c.Lockout.MaxAttempts > 10 {
		warn("lockout_attempts_high", LintMedium, "lockout threshold %d allows many guesses", c.Lockout.MaxAttempts)
	}
	if c.Lockout.MaxAttempts > 0 && c.Lockout.LockDuration < 5*time.Minute {
		warn("lock_duration_short", LintLow, "lock duration %s is below 5m", c.Lockout.LockDuration)
	}

	if c.Session.TTL > 24*time.Hour {
		warn("session_ttl_long", LintMedium, "session TTL %s exceeds 24h", c.Session.TTL)
	}
	if c.Session.SigningMethod == "hs256" {
		warn("signing_hs256", LintInfo, "hs256 shares one secret across signer and verifiers; consider ed25519")
	}

	if c.Password.Memory < 64*1024 {
		warn("argon2_memory_low", LintMedium, "argon2 memory %d KB is below the 64 MB baseline", c.Password.Memory)
	}

	if c.Reset.TokenTTL > 2*time.Hour {
		warn("reset_ttl_long", LintMedium, "reset token TTL %s exceeds 2h", c.Reset.TokenTTL)
	}
	if c.Reset.TokenBytes < 32 {
		warn("reset_token_bytes_low", LintLow, "reset tokens carry %d random bytes, below 32", c.Reset.TokenBytes)
	}

	if !c.Audit.Enabled {
		warn("audit_disabled", LintMedium, "audit trail is disabled")
	} else if !c.Audit.Synchronous && !c.Audit.DropIfFull {
		warn("audit_backpressure_blocking", LintLow, "async audit with a full buffer blocks request goroutines")
	}

	if !c.Metrics.Enabled {
		warn("metrics_disabled", LintInfo, "metrics are disabled")
	}

	return ws
}
