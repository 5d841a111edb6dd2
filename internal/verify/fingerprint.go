package verify

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Fingerprint computes the canonical content fingerprint of a details string:
// keccak-256 over the raw UTF-8 bytes, rendered as 0x-prefixed hex. This is
// the same function the registry applies at creation time, so equal inputs
// always produce equal fingerprints.
func Fingerprint(details string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(details))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// FingerprintsEqual compares two fingerprints. Hex hashes are not
// case-sensitive; empty values never match anything.
func FingerprintsEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
