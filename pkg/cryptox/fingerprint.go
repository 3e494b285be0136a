package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// Fingerprint returns a deterministic SHA-256 fingerprint of s as base64url
// (43 chars, no padding).
func Fingerprint(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// EmailFingerprint is what goes into log lines instead of an address. The
// address is normalised first so "Bob@X.com " and "bob@x.com" correlate,
// and the result is cut to 16 chars because nobody greps for 43.
func EmailFingerprint(email string) string {
	return Fingerprint(strings.ToLower(strings.TrimSpace(email)))[:16]
}
