// Package password implements credential hashing and the strength policy
// applied before any credential is accepted.
//
// # Output format
//
// Digests are argon2id in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification recomputes the digest with the parameters embedded in the
// stored string and compares in constant time.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive digests.
//   - Import any other authcore package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
