package clickhouse

import (
	"context"
	"fmt"
	"time"

	"options-income-lab/internal/domain"
	"options-income-lab/internal/storage"
)

// StageCountStore implements storage.StageCountStore using ClickHouse.
type StageCountStore struct {
	conn *Conn
}

// NewStageCountStore creates a new StageCountStore.
func NewStageCountStore(conn *Conn) *StageCountStore {
	return &StageCountStore{conn: conn}
}

// Compile-time interface check.
var _ storage.StageCountStore = (*StageCountStore)(nil)

// InsertBulk appends stage counts. Fails entire batch on duplicate (run_id, strategy, stage).
func (s *StageCountStore) InsertBulk(ctx context.Context, records []*domain.StageCountRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	defer func(start time.Time) { s.conn.observe("insert_stage_counts", start, err) }(time.Now())

	// Check for intra-batch duplicates
	type key struct {
		runID    string
		strategy domain.StrategyType
		stage    string
	}
	seen := make(map[key]struct{}, len(records))
	for _, r := range records {
		if r == nil || r.RunID == "" || r.Stage == "" {
			return storage.ErrInvalidInput
		}
		k := key{r.RunID, r.Strategy, r.Stage}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for k := range seen {
		exists, err := s.exists(ctx, k.runID, k.strategy, k.stage)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO stage_counts (
			run_id, as_of, strategy, stage, position, records_in, records_out, excluded
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		excluded := make(map[string]uint32, len(r.Excluded))
		for reason, n := range r.Excluded {
			excluded[reason] = uint32(n)
		}
		err = batch.Append(
			r.RunID, r.AsOf.UTC(), string(r.Strategy), r.Stage, uint8(r.Position),
			uint32(r.In), uint32(r.Out), excluded,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRun retrieves a run's counts ordered by strategy, position ASC.
func (s *StageCountStore) GetByRun(ctx context.Context, runID string) ([]*domain.StageCountRecord, error) {
	query := `
		SELECT run_id, as_of, strategy, stage, position, records_in, records_out, excluded
		FROM stage_counts
		WHERE run_id = ?
		ORDER BY strategy ASC, position ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run: %w", err)
	}
	defer rows.Close()

	return scanStageCounts(rows)
}

// exists checks if a record with the given key exists.
func (s *StageCountStore) exists(ctx context.Context, runID string, strategy domain.StrategyType, stage string) (bool, error) {
	query := `
		SELECT count(*) FROM stage_counts
		WHERE run_id = ? AND strategy = ? AND stage = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, runID, string(strategy), stage).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanStageCounts scans multiple rows.
func scanStageCounts(rows chRows) ([]*domain.StageCountRecord, error) {
	var records []*domain.StageCountRecord

	for rows.Next() {
		var r domain.StageCountRecord
		var strategy string
		var position uint8
		var in, out uint32
		var excluded map[string]uint32

		err := rows.Scan(&r.RunID, &r.AsOf, &strategy, &r.Stage, &position, &in, &out, &excluded)
		if err != nil {
			return nil, fmt.Errorf("scan stage count row: %w", err)
		}

		r.AsOf = r.AsOf.UTC()
		r.Strategy = domain.StrategyType(strategy)
		r.Position = int(position)
		r.In = int(in)
		r.Out = int(out)
		r.Excluded = make(map[string]int, len(excluded))
		for reason, n := range excluded {
			r.Excluded[reason] = int(n)
		}
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage count rows: %w", err)
	}

	return records, nil
}
