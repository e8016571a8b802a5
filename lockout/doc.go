// Package lockout implements the brute-force lockout decision logic.
//
// The package is pure: [Policy.Evaluate] and [Policy.OnFailure] are functions
// of their arguments and an injected "now", with no I/O and no hidden state.
// Applying a decision to a stored account record, and doing so atomically
// with respect to concurrent attempts on the same account, is the caller's
// responsibility (see the store package's compare-and-swap update path).
//
// # What this package must NOT do
//
//   - Touch Redis, the clock, or any other ambient dependency.
//   - Import the root package or any sibling package.
package lockout
