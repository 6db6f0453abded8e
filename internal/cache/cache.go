// Package cache stores oracle responses so repeated analyses of the
// same material do not re-pay oracle calls.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a cache key from an operation name and its input payload.
// The payload is hashed so keys stay filename-safe and bounded.
func Key(op string, payload string) string {
	hash := sha256.Sum256([]byte(payload))
	return strings.Join([]string{"veritrack", "v1", op, hex.EncodeToString(hash[:])}, ":")
}
