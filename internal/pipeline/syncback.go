package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/ppiankov/veracity/internal/ingest"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/store"
	"github.com/ppiankov/veracity/internal/worker"
)

// SyncQueue writes web evidence back into the knowledge store in the
// background. Write-back is best effort: failures are retried, then
// logged and dropped. The verdict that triggered the write-back has
// already been returned by then.
type SyncQueue struct {
	pool    *worker.Pool
	store   *store.Store
	loader  *ingest.Loader
	retries int
	logger  *slog.Logger
}

// NewSyncQueue starts a write-back queue over the given store
func NewSyncQueue(st *store.Store, loader *ingest.Loader, cfg model.WorkerConfig, logger *slog.Logger) *SyncQueue {
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.SyncWorkers
	if workers <= 0 {
		workers = 1
	}

	q := &SyncQueue{
		pool:    worker.NewPool(workers, workers*8),
		store:   st,
		loader:  loader,
		retries: cfg.SyncRetries,
		logger:  logger,
	}
	q.pool.Start()

	// Drain results as they arrive so workers never stall on a full
	// result channel. Jobs log their own failures.
	go func() {
		for range q.pool.Results() {
		}
	}()

	return q
}

// Enqueue schedules one write-back job per web result
func (q *SyncQueue) Enqueue(results []model.WebResult, query string) {
	for _, res := range results {
		if res.URL == "" || res.Content == "" {
			continue
		}
		q.pool.Submit(&syncJob{queue: q, result: res, query: query})
	}
}

// Close waits for all queued write-backs to finish
func (q *SyncQueue) Close() {
	q.pool.Wait()
}

type syncJob struct {
	queue  *SyncQueue
	result model.WebResult
	query  string
}

type syncResult struct {
	err error
}

func (r syncResult) GetError() error { return r.err }

func (j *syncJob) Execute(ctx context.Context) worker.Result {
	q := j.queue
	chunks := q.loader.FromWebResult(j.result, j.query)
	if len(chunks) == 0 {
		return syncResult{}
	}

	err := worker.Retry(ctx, q.retries, 500*time.Millisecond, func(ctx context.Context) error {
		return q.store.Insert(ctx, chunks)
	})
	if err != nil {
		sbErr := &model.SyncBackError{URL: j.result.URL, Err: err}
		q.logger.Warn("evidence write-back failed", "url", j.result.URL, "error", sbErr)
		return syncResult{err: sbErr}
	}

	q.logger.Debug("evidence written back", "url", j.result.URL, "chunks", len(chunks))
	return syncResult{}
}
