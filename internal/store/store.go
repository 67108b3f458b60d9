// Package store implements the durable knowledge store: a single-directory
// collection of evidence chunks with one embedding vector per chunk.
//
// Chunks and vectors are persisted in Badger under the configured path and
// mirrored in memory for nearest-neighbor queries. Every successful mutation
// bumps a monotonic generation counter; derived read-time structures (lexical
// index, hybrid retriever) key their memoization on that counter, so a bump
// is the single invalidation signal.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/ppiankov/veracity/internal/cache"
	"github.com/ppiankov/veracity/internal/llm"
	"github.com/ppiankov/veracity/internal/model"
)

const (
	metaKey     = "meta"
	chunkPrefix = "chunk/"
)

// ScoredChunk is a chunk with its distance to a query (lower = more similar)
type ScoredChunk struct {
	Chunk    model.EvidenceChunk
	Distance float64
}

// record is the persisted form of an evidence chunk
type record struct {
	Chunk  model.EvidenceChunk `json:"chunk"`
	Vector []float32           `json:"vector"`
}

// storeMeta is the schema-level metadata for a collection
type storeMeta struct {
	Collection     string `json:"collection"`
	EmbeddingModel string `json:"embedding_model"`
	Dimension      int    `json:"dimension"`
}

// Store owns the durable chunk collection
type Store struct {
	mu         sync.RWMutex
	db         *badger.DB
	embedder   llm.Embedder
	embedCache cache.Cache // Optional; nil disables embedding caching
	records    []record
	meta       storeMeta
	generation uint64
}

// Options configures a Store
type Options struct {
	Path       string
	Collection string
	Embedder   llm.Embedder
	EmbedCache cache.Cache
}

// Open opens (or creates) the store at the configured directory.
// Opening a store written with a different embedding model fails: mixing
// vector spaces silently is worse than refusing to start.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, &model.ConfigError{Field: "store.path", Reason: "store directory is required"}
	}
	if opts.Embedder == nil {
		return nil, &model.ConfigError{Field: "llm", Reason: "an embedding provider is required"}
	}

	badgerOpts := badger.DefaultOptions(opts.Path).WithLogger(nil)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, &model.RetrievalError{Stage: "store", Err: fmt.Errorf("open %s: %w", opts.Path, err)}
	}

	s := &Store{
		db:         db,
		embedder:   opts.Embedder,
		embedCache: opts.EmbedCache,
		meta: storeMeta{
			Collection:     opts.Collection,
			EmbeddingModel: opts.Embedder.Model(),
		},
	}

	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// load reads the meta record and the full corpus into memory
func (s *Store) load() error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaKey))
		if err == badger.ErrKeyNotFound {
			return nil // Fresh store
		}
		if err != nil {
			return err
		}

		var persisted storeMeta
		if err := item.Value(func(v []byte) error {
			return json.Unmarshal(v, &persisted)
		}); err != nil {
			return err
		}

		if persisted.EmbeddingModel != s.meta.EmbeddingModel {
			return &model.ConfigError{
				Field: "llm.embedding_model",
				Reason: fmt.Sprintf("store at this path was written with embedding model %q, configured model is %q; re-embedding is not supported",
					persisted.EmbeddingModel, s.meta.EmbeddingModel),
			}
		}
		s.meta = persisted

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(chunkPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec record
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &rec)
			}); err != nil {
				return err
			}
			s.records = append(s.records, rec)
		}
		return nil
	})
	if err != nil {
		var cfgErr *model.ConfigError
		if errors.As(err, &cfgErr) {
			return cfgErr
		}
		return &model.RetrievalError{Stage: "store", Err: err}
	}

	// Deterministic order for AllChunks and index rebuilds
	sort.Slice(s.records, func(i, j int) bool {
		return s.records[i].Chunk.ID < s.records[j].Chunk.ID
	})
	return nil
}

// Insert embeds and persists the given chunks. An empty slice is a no-op
// that still succeeds. On success the corpus generation is bumped.
func (s *Store) Insert(ctx context.Context, chunks []model.EvidenceChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	// Assign store identity before persisting
	for i := range chunks {
		if chunks[i].ID == "" {
			chunks[i].ID = uuid.NewString()
		}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedTexts(ctx, texts)
	if err != nil {
		return &model.RetrievalError{Stage: "embed", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.meta.Dimension == 0 {
		s.meta.Dimension = len(vectors[0])
	}

	newRecords := make([]record, len(chunks))
	err = s.db.Update(func(txn *badger.Txn) error {
		for i, c := range chunks {
			if len(vectors[i]) != s.meta.Dimension {
				return fmt.Errorf("embedding dimension mismatch: got %d, store has %d", len(vectors[i]), s.meta.Dimension)
			}
			rec := record{Chunk: c, Vector: vectors[i]}
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshal chunk: %w", err)
			}
			if err := txn.Set([]byte(chunkPrefix+c.ID), data); err != nil {
				return err
			}
			newRecords[i] = rec
		}

		metaData, err := json.Marshal(s.meta)
		if err != nil {
			return fmt.Errorf("marshal meta: %w", err)
		}
		return txn.Set([]byte(metaKey), metaData)
	})
	if err != nil {
		return &model.RetrievalError{Stage: "store", Err: err}
	}

	s.records = append(s.records, newRecords...)
	s.generation++
	return nil
}

// NearestNeighbors returns up to k chunks ordered ascending by cosine
// distance to the query. An empty store yields an empty result.
func (s *Store) NearestNeighbors(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	empty := len(s.records) == 0
	s.mu.RUnlock()
	if empty {
		return nil, nil
	}

	vectors, err := s.embedTexts(ctx, []string{query})
	if err != nil {
		return nil, &model.RetrievalError{Stage: "embed", Err: err}
	}
	queryVec := vectors[0]

	s.mu.RLock()
	scored := make([]ScoredChunk, 0, len(s.records))
	for _, rec := range s.records {
		scored = append(scored, ScoredChunk{
			Chunk:    rec.Chunk,
			Distance: cosineDistance(queryVec, rec.Vector),
		})
	}
	s.mu.RUnlock()

	// Ties broken by chunk ID so identical corpora rank identically
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Distance != scored[j].Distance {
			return scored[i].Distance < scored[j].Distance
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// AllChunks returns every chunk in the store, ordered by ID
func (s *Store) AllChunks() []model.EvidenceChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := make([]model.EvidenceChunk, len(s.records))
	for i, rec := range s.records {
		chunks[i] = rec.Chunk
	}
	return chunks
}

// Clear removes all chunks but keeps the collection metadata
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DropPrefix([]byte(chunkPrefix)); err != nil {
		return &model.RetrievalError{Stage: "store", Err: err}
	}
	s.records = nil
	s.generation++
	return nil
}

// Reset drops the collection entirely, including schema-level metadata.
// The embedding dimension is re-learned from the next insert.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DropAll(); err != nil {
		return &model.RetrievalError{Stage: "store", Err: err}
	}
	s.records = nil
	s.meta.Dimension = 0
	s.generation++
	return nil
}

// Generation returns the current corpus generation. It increases on every
// successful Insert, Clear, or Reset.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Len returns the number of chunks in the store
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// embedTexts computes vectors for texts, consulting the embedding cache
// per text and batching the misses into one provider call.
func (s *Store) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if s.embedCache != nil {
			if data, found := s.embedCache.Get(cache.EmbeddingKey(s.embedder.Model(), text)); found {
				var vec []float32
				if json.Unmarshal(data, &vec) == nil && len(vec) > 0 {
					vectors[i] = vec
					continue
				}
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		computed, err := s.embedder.Embed(ctx, missing)
		if err != nil {
			return nil, err
		}
		if len(computed) != len(missing) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(computed), len(missing))
		}
		for j, vec := range computed {
			vectors[missingIdx[j]] = vec
			if s.embedCache != nil {
				if data, err := json.Marshal(vec); err == nil {
					_ = s.embedCache.Set(cache.EmbeddingKey(s.embedder.Model(), missing[j]), data, 0)
				}
			}
		}
	}

	return vectors, nil
}
