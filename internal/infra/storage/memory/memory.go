package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/rankcheck/internal/core/domain"
)

type MemoryStorage struct {
	results   map[uuid.UUID][]*domain.RunRecord
	queue     []*domain.RetryEntry
	queued    map[string]bool
	exhausted []*domain.RetryEntry
	mu        sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		results: make(map[uuid.UUID][]*domain.RunRecord),
		queued:  make(map[string]bool),
	}
}

// -----------------------------------------------------------------------------
// Result Repository
// -----------------------------------------------------------------------------

type ResultRepo struct {
	store *MemoryStorage
}

func NewResultRepo(store *MemoryStorage) *ResultRepo {
	return &ResultRepo{store: store}
}

func (r *ResultRepo) Save(ctx context.Context, rec *domain.RunRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *rec
	r.store.results[rec.RunID] = append(r.store.results[rec.RunID], &cp)
	return nil
}

func (r *ResultRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]*domain.RunRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*domain.RunRecord, 0, len(r.store.results[runID]))
	for _, rec := range r.store.results[runID] {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (r *ResultRepo) CountByCategory(ctx context.Context, runID uuid.UUID) (map[string]int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make(map[string]int)
	for _, rec := range r.store.results[runID] {
		out[rec.Category]++
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Retry Queue Repository
// -----------------------------------------------------------------------------

type RetryQueueRepo struct {
	store *MemoryStorage
	now   func() time.Time
}

func NewRetryQueueRepo(store *MemoryStorage) *RetryQueueRepo {
	return &RetryQueueRepo{store: store, now: time.Now}
}

func (r *RetryQueueRepo) Enqueue(ctx context.Context, entry domain.CheckEntry, lastError string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := entry.Key()
	if r.store.queued[key] {
		return false, nil
	}
	r.store.queued[key] = true
	r.store.queue = append(r.store.queue, &domain.RetryEntry{
		ID:        uuid.NewString(),
		Entry:     entry,
		Status:    domain.RetryStatusPending,
		LastError: lastError,
		QueuedAt:  r.now(),
	})
	return true, nil
}

func (r *RetryQueueRepo) Drain(ctx context.Context) ([]*domain.RetryEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	batch := r.store.queue
	r.store.queue = nil
	for _, re := range batch {
		delete(r.store.queued, re.Entry.Key())
	}
	return batch, nil
}

func (r *RetryQueueRepo) Requeue(ctx context.Context, re *domain.RetryEntry, lastError string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := re.Entry.Key()
	if r.store.queued[key] {
		return nil
	}
	cp := *re
	cp.Round++
	cp.Status = domain.RetryStatusPending
	cp.LastError = lastError
	r.store.queued[key] = true
	r.store.queue = append(r.store.queue, &cp)
	return nil
}

func (r *RetryQueueRepo) MarkExhausted(ctx context.Context, re *domain.RetryEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *re
	cp.Status = domain.RetryStatusExhausted
	r.store.exhausted = append(r.store.exhausted, &cp)
	return nil
}

func (r *RetryQueueRepo) Len(ctx context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.queue), nil
}

func (r *RetryQueueRepo) Exhausted(ctx context.Context) ([]*domain.RetryEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*domain.RetryEntry, len(r.store.exhausted))
	copy(out, r.store.exhausted)
	return out, nil
}
