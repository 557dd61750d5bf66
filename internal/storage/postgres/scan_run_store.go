package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"options-income-lab/internal/domain"
	"options-income-lab/internal/storage"
)

// ScanRunStore implements storage.ScanRunStore using PostgreSQL.
type ScanRunStore struct {
	pool *Pool
}

// NewScanRunStore creates a new ScanRunStore.
func NewScanRunStore(pool *Pool) *ScanRunStore {
	return &ScanRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScanRunStore = (*ScanRunStore)(nil)

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *ScanRunStore) Insert(ctx context.Context, r *domain.ScanRun) (err error) {
	defer func(start time.Time) { s.pool.observe("insert_scan_run", start, err) }(time.Now())

	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO scan_runs (
			run_id, started_at, as_of, strategies, config_hash, opportunities, market_session
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	strategies := make([]string, len(r.Strategies))
	for i, st := range r.Strategies {
		strategies[i] = string(st)
	}

	_, err = s.pool.Exec(ctx, query,
		r.RunID,
		r.StartedAt,
		r.AsOf,
		strategies,
		r.ConfigHash,
		r.Opportunities,
		r.MarketSession,
	)
	return translate(err, "insert scan run")
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ScanRunStore) GetByID(ctx context.Context, runID string) (_ *domain.ScanRun, err error) {
	defer func(start time.Time) { s.pool.observe("get_scan_run", start, err) }(time.Now())

	query := `
		SELECT run_id, started_at, as_of, strategies, config_hash, opportunities, market_session
		FROM scan_runs
		WHERE run_id = $1
	`

	r, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		return nil, translate(err, "get scan run")
	}
	return r, nil
}

// List returns up to limit runs, most recent started_at first.
func (s *ScanRunStore) List(ctx context.Context, limit int) ([]*domain.ScanRun, error) {
	query := `
		SELECT run_id, started_at, as_of, strategies, config_hash, opportunities, market_session
		FROM scan_runs
		ORDER BY started_at DESC, run_id ASC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scan runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.ScanRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scan run row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan run rows: %w", err)
	}

	return runs, nil
}

// scanRun scans a single row.
func scanRun(row pgx.Row) (*domain.ScanRun, error) {
	var r domain.ScanRun
	var strategies []string

	err := row.Scan(
		&r.RunID,
		&r.StartedAt,
		&r.AsOf,
		&strategies,
		&r.ConfigHash,
		&r.Opportunities,
		&r.MarketSession,
	)
	if err != nil {
		return nil, err
	}

	r.StartedAt = r.StartedAt.UTC()
	r.AsOf = r.AsOf.UTC()
	r.Strategies = make([]domain.StrategyType, len(strategies))
	for i, st := range strategies {
		r.Strategies[i] = domain.StrategyType(st)
	}
	return &r, nil
}
