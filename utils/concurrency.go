package utils

import (
	"context"
	"sync"
	"time"
)

// WorkerPool manages a pool of goroutines with rate limiting. Cancelling the
// pool's context stops the rate-limit wait and skips jobs not yet started.
type WorkerPool struct {
	ctx         context.Context
	maxWorkers  int
	rateLimitMs int
	semaphore   chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	lastRequest time.Time
}

// NewWorkerPool creates a WorkerPool with the given concurrency and rate limit.
func NewWorkerPool(ctx context.Context, maxWorkers, rateLimitMs int) *WorkerPool {
	if ctx == nil {
		ctx = context.Background()
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		ctx:         ctx,
		maxWorkers:  maxWorkers,
		rateLimitMs: rateLimitMs,
		semaphore:   make(chan struct{}, maxWorkers),
		lastRequest: time.Now(),
	}
}

// Submit enqueues a job for execution in the pool.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		if !wp.enforceRateLimit() {
			return
		}
		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// enforceRateLimit reports false when the pool's context was cancelled
// before the job's slot came up.
func (wp *WorkerPool) enforceRateLimit() bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	minInterval := time.Duration(wp.rateLimitMs) * time.Millisecond
	if remaining := minInterval - time.Since(wp.lastRequest); remaining > 0 {
		select {
		case <-time.After(remaining):
		case <-wp.ctx.Done():
			return false
		}
	}
	wp.lastRequest = time.Now()
	return true
}

// URLSet is a thread-safe set for tracking URLs already seen within a run.
type URLSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	return true
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
