// Package entity defines the domain models for the analysis feature.
package entity

import (
	"fmt"
	"regexp"
	"strings"
)

// keyPattern is the fixed format of a canonical instrument key (KRX six-digit code).
var keyPattern = regexp.MustCompile(`^[0-9]{6}$`)

// Key is a canonical instrument key such as "005930".
// Build it with ParseKey; the zero value is not a valid key.
type Key string

// ParseKey validates s and returns it as a Key.
// Surrounding whitespace is ignored; nothing else is normalized.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if !keyPattern.MatchString(s) {
		return "", fmt.Errorf("invalid instrument key %q: want 6 digits", s)
	}
	return Key(s), nil
}

// IsKey reports whether s is already in canonical key format.
func IsKey(s string) bool {
	return keyPattern.MatchString(strings.TrimSpace(s))
}

// Valid reports whether k satisfies the canonical format.
func (k Key) Valid() bool {
	return keyPattern.MatchString(string(k))
}

func (k Key) String() string {
	return string(k)
}
