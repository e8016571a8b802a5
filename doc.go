// Package authcore provides an account security service: credential
// verification with brute-force lockout, single-use password reset tokens,
// a persistent audit trail, and signed session tokens, all backed by Redis.
//
// The package is designed for concurrent server workloads: Service methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Service], [Builder], [Config]
// and value types (Session, AuditEvent, MetricsSnapshot). Persistence lives
// in the store package, lockout arithmetic in lockout, hashing in password,
// session tokens in token, and audit dispatch under internal/.
//
// # What this package must NOT do
//
//   - Expose password digests or pending reset tokens in its public API;
//     accounts are sanitized before they cross the boundary.
//   - Reveal through Login whether a username exists; unknown usernames and
//     wrong passwords are indistinguishable to callers.
//   - Let audit trail failures block or fail the operations they record.
package authcore
