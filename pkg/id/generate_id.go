package id

import (
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

// NewID32 returns a random v4 uuid rendered as exactly 32 lowercase hex characters.
func NewID32() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Valid reports whether s is a 32-char lowercase hex id or a canonical uuid.
func Valid(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if reHex32.MatchString(s) {
		return true
	}
	u, err := uuid.Parse(s)
	return err == nil && len(s) == 36 && u.Version() >= 1 && u.Version() <= 5
}
