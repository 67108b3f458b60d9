package cache

import (
	"testing"
	"time"
)

func TestEmbeddingKey_ModelScoped(t *testing.T) {
	a := EmbeddingKey("text-embedding-3-small", "the sky is blue")
	b := EmbeddingKey("nomic-embed-text", "the sky is blue")
	if a == b {
		t.Error("Expected different keys for different embedding models")
	}

	c := EmbeddingKey("text-embedding-3-small", "the sky is blue")
	if a != c {
		t.Error("Expected stable keys for identical inputs")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("Expected miss for unknown key")
	}

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get("k")
	if !found || string(val) != "v" {
		t.Errorf("Expected hit with value v, got %q found=%v", val, found)
	}

	_ = c.Delete("k")
	if _, found := c.Get("k"); found {
		t.Error("Expected miss after delete")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	key := SearchKey("some query")
	if err := c.Set(key, []byte("payload"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if val, found := c.Get(key); !found || string(val) != "payload" {
		t.Errorf("Expected fresh hit, got %q found=%v", val, found)
	}

	time.Sleep(20 * time.Millisecond)
	if _, found := c.Get(key); found {
		t.Error("Expected miss after expiry")
	}
}

func TestLayeredCache_Promotion(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Drop the memory tier, then verify a Get is served from disk
	_ = c.memory.Clear()
	val, found := c.Get("k")
	if !found || string(val) != "v" {
		t.Fatalf("Expected disk hit, got %q found=%v", val, found)
	}

	// And promoted back to memory
	if _, found := c.memory.Get("k"); !found {
		t.Error("Expected value promoted to memory tier")
	}
}
