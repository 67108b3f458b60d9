// Package worker provides the bounded background-work primitives: a job
// pool used for deferred evidence write-back and bulk embedding, a retry
// helper with exponential backoff, and a per-domain rate limiter.
package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Pool manages a fixed set of workers draining a bounded job queue.
// Submit blocks once the queue is full, which backpressures producers
// instead of growing without bound.
type Pool struct {
	workers    int
	jobQueue   chan Job
	results    chan Result
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once

	// closeMu orders in-flight Submits against queue close: Wait flips
	// closed under the write lock before closing the channel, so a Submit
	// holding the read lock either completes its send first or sees the
	// flag and drops the job.
	closeMu sync.RWMutex
	closed  bool
}

// NewPool creates a new worker pool with the specified number of workers
// and queue capacity.
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers * 2
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan Job, queueSize),
		results:    make(chan Result, queueSize),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the worker pool
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit submits a job to the pool, blocking while the queue is full.
// Jobs submitted after Wait or Shutdown are dropped.
func (p *Pool) Submit(job Job) {
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if p.closed {
		return
	}

	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- job:
	}
}

// Results exposes the result channel for callers that drain as they go
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Wait closes the queue, waits for all submitted jobs to finish, and
// returns their results. Safe to call more than once.
func (p *Pool) Wait() []Result {
	p.closeMu.Lock()
	alreadyClosed := p.closed
	p.closed = true
	p.closeMu.Unlock()
	if !alreadyClosed {
		close(p.jobQueue)
	}

	go func() {
		p.wg.Wait()
		p.closeResults()
	}()

	var results []Result
	for result := range p.results {
		results = append(results, result)
	}
	return results
}

// Shutdown stops the pool without waiting for queued jobs
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
