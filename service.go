package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	internalaudit "github.com/arcvale/authcore/internal/audit"
	"github.com/arcvale/authcore/password"
	"github.com/arcvale/authcore/store"
	"github.com/arcvale/authcore/token"
)

// Audit event types recorded by the service.
const (
	EventUserRegistration      = "user_registration"
	EventLoginSuccess          = "login_success"
	EventFailedLogin           = "failed_login"
	EventAccountLocked         = "account_locked"
	EventLoginAttemptLocked    = "login_attempt_locked"
	EventLoginAttemptInactive  = "login_attempt_inactive"
	EventPasswordResetRequest  = "password_reset_requested"
	EventPasswordResetFailed   = "password_reset_failed"
	EventPasswordResetSuccess  = "password_reset_success"
	EventProfileUpdated        = "profile_updated"
	EventAccountDeleted        = "account_deleted"
	EventAccountDeletionFailed = "account_deletion_failed"
	EventRoleChanged           = "role_changed"
)

// Service is the account security engine: credential verification with
// brute-force lockout, password reset, the audit trail and session token
// issuance. Build one with [New]; a Service is safe for concurrent use.
type Service struct {
	config     Config
	accounts   *store.Accounts
	trail      *store.AuditLog
	hasher     *password.Hasher
	issuer     *token.Issuer
	sink       internalaudit.Sink
	dispatcher *internalaudit.Dispatcher
	metrics    *Metrics
	now        func() time.Time
}

func (s *Service) ready() error {
	if s == nil || s.accounts == nil {
		return ErrServiceNotReady
	}
	return nil
}

// Close drains and stops the async audit dispatcher. Safe to call more than
// once.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.dispatcher.Close()
}

// Metrics exposes the in-process counters.
func (s *Service) Metrics() *Metrics {
	if s == nil {
		return nil
	}
	return s.metrics
}

// MetricsSnapshot returns a point-in-time copy of all counters and
// histograms. Exporters read from this rather than the live counters.
func (s *Service) MetricsSnapshot() MetricsSnapshot {
	return s.Metrics().Snapshot()
}

// AuditDropped reports events discarded by the async dispatcher because its
// buffer was full.
func (s *Service) AuditDropped() uint64 {
	if s == nil {
		return 0
	}
	return s.dispatcher.Dropped()
}

// AuditWriteFailures reports events that reached the trail but failed to
// persist.
func (s *Service) AuditWriteFailures() uint64 {
	if s == nil || s.trail == nil {
		return 0
	}
	return s.trail.WriteFailures()
}

// emitAudit records one event. Failures never propagate to the caller; a
// degraded trail shows up in AuditWriteFailures and the audit metrics
// instead.
func (s *Service) emitAudit(ctx context.Context, eventType, username string, success bool, detail string) {
	if !s.config.Audit.Enabled {
		return
	}

	event := internalaudit.Event{
		Timestamp: s.now(),
		EventType: eventType,
		Username:  username,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Detail:    detail,
	}

	if s.dispatcher != nil {
		before := s.dispatcher.Dropped()
		s.dispatcher.Emit(ctx, event)
		if s.dispatcher.Dropped() > before {
			s.metrics.Inc(MetricAuditDropped)
		}
		return
	}

	before := s.trail.WriteFailures()
	s.sink.Emit(ctx, event)
	if s.trail.WriteFailures() > before {
		s.metrics.Inc(MetricAuditWriteFailure)
	}
}

// AuditLog returns recent audit events, newest first. limit <= 0 falls back
// to the configured default.
func (s *Service) AuditLog(ctx context.Context, limit int) ([]AuditEvent, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.config.Audit.RecentLimit
	}

	events, err := s.trail.Recent(ctx, limit)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return events, nil
}

// AuditLogFor returns recent audit events recorded for username, newest
// first. Events outlive the account, so this works after deletion too.
// limit <= 0 falls back to the configured default.
func (s *Service) AuditLogFor(ctx context.Context, username string, limit int) ([]AuditEvent, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.config.Audit.RecentLimit
	}

	events, err := s.trail.RecentFor(ctx, username, limit)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return events, nil
}

// ParseSession verifies a session token and returns its claims.
func (s *Service) ParseSession(tokenStr string) (*SessionClaims, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	claims, err := s.issuer.Verify(tokenStr)
	if err != nil {
		return nil, ErrSessionInvalid
	}
	return claims, nil
}

// translateStoreErr rewrites store sentinels into the service's exported
// errors.
func translateStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrAccountNotFound
	case errors.Is(err, store.ErrUsernameTaken):
		return ErrUsernameTaken
	case errors.Is(err, store.ErrEmailTaken):
		return ErrEmailTaken
	case errors.Is(err, store.ErrTokenInvalid):
		return ErrResetTokenInvalid
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	default:
		return err
	}
}
