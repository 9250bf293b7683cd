// Package gen provides helpers for generating deterministic identifiers.
package gen

import (
	"strings"

	"github.com/google/uuid"
)

const sep = "|"

// Key joins parts with the key separator.
func Key(parts ...string) string {
	return strings.Join(parts, sep)
}

// UUIDv5 derives a name-based UUID from the given parts.
// The same parts always produce the same UUID.
func UUIDv5(parts ...string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(Key(parts...))).String()
}
