package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the hex-encoded SHA-256 digest of the UTF-8 bytes of
// text: 64 lowercase characters, no separators. Identical content always
// yields the same hash, which is the deduplication key for markers.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
