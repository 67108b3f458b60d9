// Package retrieve implements hybrid retrieval over the knowledge store:
// vector and keyword rankings fused into one candidate list, then re-ranked
// down to the evidence set handed to evaluation. Built retrievers are
// memoized per corpus generation and rebuilt only after a store mutation.
package retrieve

import (
	"context"
	"sort"

	"github.com/ppiankov/veracity/internal/index"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/store"
)

// rrfOffset dampens the influence of rank position in reciprocal rank
// fusion; 60 is the conventional constant.
const rrfOffset = 60.0

// Hybrid fuses the store's vector ranking with the lexical index's keyword
// ranking using weighted reciprocal rank fusion. Instances are immutable
// snapshots of one corpus generation; they are rebuilt, never updated.
type Hybrid struct {
	store         *store.Store
	lexical       *index.Lexical
	topK          int
	vectorWeight  float64
	lexicalWeight float64
}

// NewHybrid builds a hybrid retriever over the store's current contents.
// Building against an empty store succeeds and yields an empty-corpus
// retriever that returns nothing.
func NewHybrid(st *store.Store, cfg model.RetrievalConfig) *Hybrid {
	lexical := index.NewLexical()
	lexical.Rebuild(st.AllChunks())

	return &Hybrid{
		store:         st,
		lexical:       lexical,
		topK:          cfg.TopK,
		vectorWeight:  cfg.VectorWeight,
		lexicalWeight: cfg.LexicalWeight,
	}
}

// Retrieve returns up to topK candidates for the query, deterministic for
// a fixed corpus and query.
func (h *Hybrid) Retrieve(ctx context.Context, query string) ([]model.EvidenceChunk, error) {
	vectorHits, err := h.store.NearestNeighbors(ctx, query, h.topK)
	if err != nil {
		return nil, err
	}
	lexicalHits := h.lexical.Query(query, h.topK)

	type fused struct {
		chunk model.EvidenceChunk
		score float64
	}
	byID := make(map[string]*fused)

	add := func(chunk model.EvidenceChunk, rank int, weight float64) {
		f, ok := byID[chunk.ID]
		if !ok {
			f = &fused{chunk: chunk}
			byID[chunk.ID] = f
		}
		f.score += weight / (rrfOffset + float64(rank+1))
	}

	for rank, hit := range vectorHits {
		add(hit.Chunk, rank, h.vectorWeight)
	}
	for rank, hit := range lexicalHits {
		add(hit.Chunk, rank, h.lexicalWeight)
	}

	merged := make([]*fused, 0, len(byID))
	for _, f := range byID {
		merged = append(merged, f)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].score != merged[j].score {
			return merged[i].score > merged[j].score
		}
		return merged[i].chunk.ID < merged[j].chunk.ID
	})

	if len(merged) > h.topK {
		merged = merged[:h.topK]
	}

	chunks := make([]model.EvidenceChunk, len(merged))
	for i, f := range merged {
		chunks[i] = f.chunk
	}
	return chunks, nil
}
