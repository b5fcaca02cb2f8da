// Package hash provides hashing utilities.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SHA256 computes the SHA256 hash of data and returns it as a hex string.
func SHA256(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SHA256String computes the SHA256 hash of a string.
func SHA256String(s string) string {
	return SHA256([]byte(s))
}

// SHA256Short returns the first n characters of a SHA256 hash.
func SHA256Short(data []byte, n int) string {
	h := SHA256(data)
	if n > len(h) {
		return h
	}
	return h[:n]
}

// AugmentedID generates a deterministic identifier for the n-th synthetic
// record derived from baseID. Stable across runs so augmentation stays
// reproducible and auditable.
func AugmentedID(baseID string, n int) string {
	return fmt.Sprintf("aug-%s-%s", baseID, SHA256Short([]byte(fmt.Sprintf("%s#%d", baseID, n)), 8))
}
