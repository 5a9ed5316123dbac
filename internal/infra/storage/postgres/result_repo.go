package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vietddude/rankcheck/internal/core/domain"
)

// ResultRepo implements storage.ResultRepository using PostgreSQL.
type ResultRepo struct {
	db *DB
}

// NewResultRepo creates a new PostgreSQL results ledger.
func NewResultRepo(db *DB) *ResultRepo {
	return &ResultRepo{db: db}
}

const insertResult = `
	INSERT INTO run_results (
		run_id, username, file, account_id, current_name, category,
		reason, name_changed, online, recheck, checked_at
	) VALUES (
		:run_id, :username, :file, :account_id, :current_name, :category,
		:reason, :name_changed, :online, :recheck, :checked_at
	)
`

// Save inserts one ledger row.
func (r *ResultRepo) Save(ctx context.Context, rec *domain.RunRecord) error {
	if _, err := r.db.NamedExecContext(ctx, insertResult, rec); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// ListByRun returns every row of a run in insertion order.
func (r *ResultRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]*domain.RunRecord, error) {
	query := `
		SELECT run_id, username, file, account_id, current_name, category,
		       reason, name_changed, online, recheck, checked_at
		FROM run_results
		WHERE run_id = $1
		ORDER BY id ASC
	`

	var recs []*domain.RunRecord
	if err := r.db.SelectContext(ctx, &recs, query, runID); err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return recs, nil
}

// CountByCategory aggregates a run's rows per category.
func (r *ResultRepo) CountByCategory(ctx context.Context, runID uuid.UUID) (map[string]int, error) {
	query := `
		SELECT category, COUNT(*) AS n
		FROM run_results
		WHERE run_id = $1
		GROUP BY category
	`

	var rows []struct {
		Category string `db:"category"`
		N        int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, fmt.Errorf("failed to count results: %w", err)
	}

	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Category] = row.N
	}
	return out, nil
}
