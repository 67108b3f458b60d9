package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// EmbeddingKey generates a cache key for an embedding vector. The model name
// is part of the key so switching embedding models never reuses stale vectors.
func EmbeddingKey(embeddingModel, text string) string {
	hash := sha256.Sum256([]byte(embeddingModel + "\x00" + text))
	return "veracity:emb:v1:" + hex.EncodeToString(hash[:])
}

// SearchKey generates a cache key for a web search response
func SearchKey(query string) string {
	hash := sha256.Sum256([]byte(query))
	return "veracity:search:v1:" + hex.EncodeToString(hash[:])
}
