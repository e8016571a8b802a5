// Package store persists accounts, reset tokens and the audit trail in Redis.
//
// # Key scheme
//
// All keys share a configurable prefix:
//
//	<prefix>:acct:<id>      JSON account record
//	<prefix>:uname:<name>   username index, value is the account ID
//	<prefix>:email:<email>  email index, value is the account ID
//	<prefix>:reset:<token>  reset token locator with TTL, value is the account ID
//	<prefix>:audit:seq      monotonic audit sequence counter
//	<prefix>:audit:log      global audit event list, newest first
//	<prefix>:audit:user:<lower(username)>  per-account audit event list
//
// Index keys are written lowercase so username and email lookups are
// case-insensitive.
//
// # Concurrency
//
// Every mutation of an account runs inside a WATCH transaction on the account
// key and retries on contention, so concurrent writers serialize per account.
// The record's Version field increments on every committed write.
//
// # What this package must NOT do
//
//   - Hash or verify passwords; callers pass digests and verify callbacks.
//   - Decide lockout policy; decisions come from the lockout package and are
//     applied here atomically.
//   - Emit audit events on its own initiative.
package store
