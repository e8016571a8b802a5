package authcore

import (
	"io"
	"time"

	internalaudit "github.com/arcvale/authcore/internal/audit"
	"github.com/arcvale/authcore/store"
	"github.com/arcvale/authcore/token"
)

// Role is the authorization level attached to an account.
type Role = string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role Role) bool {
	return role == RoleUser || role == RoleAdmin
}

// Account is the persisted credential record.
type Account = store.Account

// ResetToken is a pending password reset credential owned by one account.
type ResetToken = store.ResetToken

// RegisterRequest is the input for [Service.Register]. Username, Email and
// Password are required; Role defaults to [RoleUser] when empty.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
	FullName string
	Role     Role
}

// ProfileUpdate carries the mutable profile fields for
// [Service.UpdateProfile]. Nil pointers leave the field untouched.
type ProfileUpdate = store.ProfileUpdate

// AttemptOutcome classifies how a login attempt resolved inside the store
// transaction.
type AttemptOutcome = store.AttemptOutcome

const (
	AttemptSuccess            = store.AttemptSuccess
	AttemptWrongPassword      = store.AttemptWrongPassword
	AttemptTransitionedToLock = store.AttemptTransitionedToLock
	AttemptLocked             = store.AttemptLocked
	AttemptInactive           = store.AttemptInactive
)

// Session is returned by a successful [Service.Login].
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   *Account
}

// SessionClaims is the verified claim set of a session token.
type SessionClaims = token.SessionClaims

// AuditEvent is a structured audit record.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the service's audit
// dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// sanitize strips the credential material from an account before it crosses
// the API boundary.
func sanitize(acct *store.Account) *Account {
	if acct == nil {
		return nil
	}
	out := *acct
	out.PasswordHash = ""
	out.ResetTokens = nil
	return &out
}
