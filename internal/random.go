package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// NewResetToken returns a URL-safe random token built from size random
// bytes. The encoded form carries the full entropy of the raw bytes.
func NewResetToken(size int) (string, error) {
	if size < 16 {
		return "", errors.New("reset token size too small")
	}

	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
