package id

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
)

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

// New returns exactly 32 lowercase hex characters (no separators/prefixes).
// Used for event ids and accepted as an idempotency request id.
func New() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Valid reports whether s has the shape produced by New.
func Valid(s string) bool { return reHex32.MatchString(s) }
