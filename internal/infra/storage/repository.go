package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/vietddude/rankcheck/internal/core/domain"
)

// ResultRepository handles the results ledger
type ResultRepository interface {
	// Save saves one classified entry
	Save(ctx context.Context, rec *domain.RunRecord) error

	// ListByRun retrieves all records of a run in insertion order
	ListByRun(ctx context.Context, runID uuid.UUID) ([]*domain.RunRecord, error)

	// CountByCategory aggregates a run's records per category
	CountByCategory(ctx context.Context, runID uuid.UUID) (map[string]int, error)
}

// RetryQueueRepository handles entries waiting for a rate-limit recheck
type RetryQueueRepository interface {
	// Enqueue adds an entry; an entry already queued under the same key is
	// left untouched and false is returned
	Enqueue(ctx context.Context, entry domain.CheckEntry, lastError string) (bool, error)

	// Drain removes and returns every queued entry in enqueue order
	Drain(ctx context.Context) ([]*domain.RetryEntry, error)

	// Requeue puts a drained entry back with its round advanced
	Requeue(ctx context.Context, re *domain.RetryEntry, lastError string) error

	// MarkExhausted records that an entry ran out of rounds
	MarkExhausted(ctx context.Context, re *domain.RetryEntry) error

	// Len returns the number of queued entries
	Len(ctx context.Context) (int, error)

	// Exhausted returns the entries that ran out of rounds
	Exhausted(ctx context.Context) ([]*domain.RetryEntry, error)
}
