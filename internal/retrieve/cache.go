package retrieve

import (
	"context"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/store"
)

// built is one memoized retriever pair for a single corpus generation
type built struct {
	hybrid   *Hybrid
	reranker *Reranker
}

// Retriever is the process-wide retrieval entry point. It memoizes the
// built hybrid retriever and re-ranker keyed by the store's corpus
// generation: a retrieval started after a store mutation commits always
// sees a freshly built pair, while retrievals already in flight complete
// against their pre-mutation snapshot. Stale generations age out by TTL.
type Retriever struct {
	store *store.Store
	cfg   model.RetrievalConfig
	memo  *gocache.Cache
	mu    sync.Mutex // Serializes builds so concurrent misses build once
}

// NewRetriever creates a generation-cached retriever over the store
func NewRetriever(st *store.Store, cfg model.RetrievalConfig) *Retriever {
	return &Retriever{
		store: st,
		cfg:   cfg,
		memo:  gocache.New(30*time.Minute, 10*time.Minute),
	}
}

// Retrieve returns the re-ranked evidence set for the query: at most TopN
// chunks, drawn from the TopK hybrid candidates.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]model.EvidenceChunk, error) {
	b := r.current()

	candidates, err := b.hybrid.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	return b.reranker.Rerank(query, candidates), nil
}

// Candidates returns the raw hybrid candidate list without re-ranking
func (r *Retriever) Candidates(ctx context.Context, query string) ([]model.EvidenceChunk, error) {
	return r.current().hybrid.Retrieve(ctx, query)
}

// current returns the retriever pair for the store's current generation,
// building it on first use after a mutation.
func (r *Retriever) current() built {
	key := strconv.FormatUint(r.store.Generation(), 10)
	if v, ok := r.memo.Get(key); ok {
		return v.(built)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the lock; another goroutine may have built it,
	// and the generation may have moved again meanwhile.
	key = strconv.FormatUint(r.store.Generation(), 10)
	if v, ok := r.memo.Get(key); ok {
		return v.(built)
	}

	b := built{
		hybrid:   NewHybrid(r.store, r.cfg),
		reranker: NewReranker(r.cfg.TopN),
	}
	r.memo.Set(key, b, gocache.DefaultExpiration)
	return b
}
