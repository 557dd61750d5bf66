package storage

import (
	"context"
	"time"

	"options-income-lab/internal/domain"
)

// ScanRunStore provides access to scan_runs storage.
type ScanRunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.ScanRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.ScanRun, error)

	// List returns up to limit runs, most recent started_at first.
	// A non-positive limit returns every run.
	List(ctx context.Context, limit int) ([]*domain.ScanRun, error)
}

// OpportunityStore provides access to ranked opportunities per run.
type OpportunityStore interface {
	// InsertBulk adds a run's opportunities atomically. Fails entire batch on
	// any duplicate (run_id, opportunity_id).
	InsertBulk(ctx context.Context, runID string, opps []*domain.Opportunity) error

	// GetByRun retrieves a run's opportunities ordered by strategy, rank ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.Opportunity, error)

	// GetByRunAndStrategy retrieves one strategy's opportunities ordered by rank ASC.
	GetByRunAndStrategy(ctx context.Context, runID string, strategy domain.StrategyType) ([]*domain.Opportunity, error)
}

// ChainSnapshotStore provides access to quoted chain history.
type ChainSnapshotStore interface {
	// InsertBulk appends quotes. Fails entire batch on duplicate
	// (run_id, ticker, option_type, expiration, strike).
	InsertBulk(ctx context.Context, quotes []*domain.ChainQuote) error

	// GetByTicker retrieves quotes for a ticker observed within [start, end]
	// (inclusive), ordered by as_of, expiration, strike ASC.
	GetByTicker(ctx context.Context, ticker string, start, end time.Time) ([]*domain.ChainQuote, error)
}

// StageCountStore provides access to pipeline diagnostics history.
type StageCountStore interface {
	// InsertBulk appends stage counts. Fails entire batch on duplicate
	// (run_id, strategy, stage).
	InsertBulk(ctx context.Context, records []*domain.StageCountRecord) error

	// GetByRun retrieves a run's counts ordered by strategy, position ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.StageCountRecord, error)
}
