// Package cache stores oracle responses so repeated scoring runs over the same
// ideas do not pay for the same LLM call twice.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache is a byte-oriented TTL store. A zero ttl means the store's default.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

const keyPrefix = "ideascore:v1:"

// ResponseKey builds the cache key for one oracle and request fingerprint.
// Oracle names are lowercased so "OpenAI/gpt-4o" and "openai/gpt-4o" share entries.
func ResponseKey(oracle, fingerprint string) string {
	return keyPrefix + strings.ToLower(oracle) + ":" + fingerprint
}

// fileName maps an arbitrary key onto a filesystem-safe name.
func fileName(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:]) + ".cache"
}
