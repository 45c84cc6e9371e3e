// Package crypto holds the small set of hashing primitives the
// reliability core needs. No password storage lives in this core, so
// only the content-hash helper is exported.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hash returns the hex-encoded SHA-256 digest of input. Used by
// the idempotency engine to fingerprint a request's canonical JSON body.
func SHA256Hash(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}
