// Package qrid generates and normalizes the durable identifiers embedded
// in printed QR codes. Earlier iterations of the product sometimes wrote
// identifiers with a "qr_" prefix and sometimes without; the prefix is
// cosmetic, so every identifier is canonicalized before storage or lookup.
package qrid

import (
	"strings"

	"github.com/google/uuid"
)

// legacyPrefix is the historical prefix some identifiers carry.
const legacyPrefix = "qr_"

// Canonicalize strips the legacy prefix, yielding the single form used as
// the storage key. Generated identifiers are UUIDs, whose alphabet cannot
// begin with the prefix, so a single strip is idempotent.
func Canonicalize(raw string) string {
	return strings.TrimPrefix(strings.TrimSpace(raw), legacyPrefix)
}

// Generate allocates a new identifier in canonical form. Called exactly
// once per account, at registration.
func Generate() string {
	return uuid.New().String()
}
