package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ppiankov/veracity/internal/cache"
	"github.com/ppiankov/veracity/internal/ingest"
	"github.com/ppiankov/veracity/internal/llm"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/pipeline"
	"github.com/ppiankov/veracity/internal/retrieve"
	"github.com/ppiankov/veracity/internal/search"
	"github.com/ppiankov/veracity/internal/store"
)

// app holds the wired components of one running instance
type app struct {
	cfg       *model.Config
	logger    *slog.Logger
	store     *store.Store
	retriever *retrieve.Retriever
	loader    *ingest.Loader
	queue     *pipeline.SyncQueue
	verifier  *pipeline.Verifier
}

// buildApp wires the store, providers, retriever, web fallback and
// write-back queue from the effective configuration. Web search is
// optional: without a TAVILY_API_KEY the pipeline simply never leaves
// the local store.
func buildApp(cfg *model.Config) (*app, error) {
	level := slog.LevelInfo
	if cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	embedder, err := llm.NewEmbedder(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	var embedCache cache.Cache
	var searchCache cache.Cache
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			dir = filepath.Join(os.TempDir(), "veracity-cache")
		}
		embedCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, filepath.Join(dir, "embed"), cfg.Cache.DiskTTL)
		searchCache = cache.NewMemoryCache(cfg.Cache.MemoryTTL, cfg.Cache.MemoryTTL)
	}

	st, err := store.Open(store.Options{
		Path:       cfg.Store.Path,
		Collection: cfg.Store.Collection,
		Embedder:   embedder,
		EmbedCache: embedCache,
	})
	if err != nil {
		return nil, err
	}

	loader := ingest.NewLoader(ingest.NewSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap))
	retriever := retrieve.NewRetriever(st, cfg.Retrieval)
	queue := pipeline.NewSyncQueue(st, loader, cfg.Workers, logger)

	opts := pipeline.VerifierOptions{
		Retriever: retriever,
		Provider:  provider,
		Syncer:    queue,
		Threshold: cfg.Retrieval.ConfidenceThreshold,
		Logger:    logger,
	}

	searcher, err := search.NewClient(cfg.Search, searchCache)
	switch {
	case err == nil:
		opts.Searcher = searcher
		if cfg.Search.FetchPages {
			opts.Enricher = search.NewFetcher(cfg.Search)
		}
	case isConfigError(err):
		logger.Info("web search disabled", "reason", err)
	default:
		_ = st.Close()
		return nil, err
	}

	verifier, err := pipeline.NewVerifier(opts)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		retriever: retriever,
		loader:    loader,
		queue:     queue,
		verifier:  verifier,
	}, nil
}

// Close drains the write-back queue and releases the store
func (a *app) Close() error {
	a.queue.Close()
	return a.store.Close()
}

// Ingest loads the configured data directory into the store
func (a *app) Ingest(ctx context.Context) (int, error) {
	return a.IngestDir(ctx, a.cfg.Ingest.DataDir)
}

// IngestDir loads one directory of text documents into the store
func (a *app) IngestDir(ctx context.Context, dir string) (int, error) {
	chunks, err := a.loader.LoadDir(dir)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	if err := a.store.Insert(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func isConfigError(err error) bool {
	var cerr *model.ConfigError
	return errors.As(err, &cerr)
}
