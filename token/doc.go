// Package token issues and verifies the signed session tokens returned by a
// successful login.
//
// Tokens are JWTs carrying the account ID and username. Both HS256 and
// Ed25519 signing are supported; verification pins the configured algorithm
// so a token signed one way can never be accepted the other way.
package token
