// Package audit implements async event dispatching for security-relevant operations.
//
// # Components
//
//   - [Event]: structured audit record with timestamp, type, username, IP and detail.
//   - [Sink]: interface for event consumers (channel, JSON writer, fan-out, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which
// events to emit and it does NOT assign sequence numbers; the persistent trail
// does both.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import authcore or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
