package clickhouse

import (
	"context"
	"fmt"
	"time"

	"options-income-lab/internal/domain"
	"options-income-lab/internal/storage"
)

// ChainSnapshotStore implements storage.ChainSnapshotStore using ClickHouse.
type ChainSnapshotStore struct {
	conn *Conn
}

// NewChainSnapshotStore creates a new ChainSnapshotStore.
func NewChainSnapshotStore(conn *Conn) *ChainSnapshotStore {
	return &ChainSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ChainSnapshotStore = (*ChainSnapshotStore)(nil)

// InsertBulk appends quotes. Fails entire batch on duplicate
// (run_id, ticker, option_type, expiration, strike).
func (s *ChainSnapshotStore) InsertBulk(ctx context.Context, quotes []*domain.ChainQuote) (err error) {
	if len(quotes) == 0 {
		return nil
	}
	defer func(start time.Time) { s.conn.observe("insert_chain_quotes", start, err) }(time.Now())

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(quotes))
	runs := make(map[string]struct{})
	for _, q := range quotes {
		if q == nil || q.RunID == "" || q.Contract.Ticker == "" {
			return storage.ErrInvalidInput
		}
		key := q.RunID + "|" + q.Contract.Key()
		if _, exists := seen[key]; exists {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
		runs[q.RunID] = struct{}{}
	}

	// Runs are written once; any existing row for a run in the batch is a duplicate
	for runID := range runs {
		exists, err := s.runExists(ctx, runID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO chain_quotes (
			run_id, as_of, ticker, contract_symbol, option_type, strike, expiration,
			bid, ask, last_price, implied_volatility, open_interest, volume,
			underlying_price, premium, price_source
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, q := range quotes {
		c := q.Contract
		err = batch.Append(
			q.RunID, q.AsOf.UTC(), c.Ticker, c.ContractSymbol, string(c.OptionType), c.Strike, c.Expiration,
			c.Bid, c.Ask, c.LastPrice, c.ImpliedVolatility, c.OpenInterest, c.Volume,
			c.UnderlyingPrice, q.Premium, string(q.PriceSource),
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

// GetByTicker retrieves quotes for a ticker observed within [start, end] (inclusive).
func (s *ChainSnapshotStore) GetByTicker(ctx context.Context, ticker string, start, end time.Time) ([]*domain.ChainQuote, error) {
	query := `
		SELECT
			run_id, as_of, ticker, contract_symbol, option_type, strike, expiration,
			bid, ask, last_price, implied_volatility, open_interest, volume,
			underlying_price, premium, price_source
		FROM chain_quotes
		WHERE ticker = ? AND as_of >= ? AND as_of <= ?
		ORDER BY as_of ASC, expiration ASC, strike ASC, option_type ASC
	`

	rows, err := s.conn.Query(ctx, query, ticker, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("query by ticker: %w", err)
	}
	defer rows.Close()

	return scanChainQuotes(rows)
}

// runExists checks if any quote for the run exists.
func (s *ChainSnapshotStore) runExists(ctx context.Context, runID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM chain_quotes WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanChainQuotes scans multiple rows.
func scanChainQuotes(rows chRows) ([]*domain.ChainQuote, error) {
	var quotes []*domain.ChainQuote

	for rows.Next() {
		var q domain.ChainQuote
		var optionType, priceSource string

		err := rows.Scan(
			&q.RunID, &q.AsOf, &q.Contract.Ticker, &q.Contract.ContractSymbol, &optionType,
			&q.Contract.Strike, &q.Contract.Expiration,
			&q.Contract.Bid, &q.Contract.Ask, &q.Contract.LastPrice, &q.Contract.ImpliedVolatility,
			&q.Contract.OpenInterest, &q.Contract.Volume,
			&q.Contract.UnderlyingPrice, &q.Premium, &priceSource,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chain quote row: %w", err)
		}

		q.AsOf = q.AsOf.UTC()
		q.Contract.Expiration = q.Contract.Expiration.UTC()
		q.Contract.OptionType = domain.OptionType(optionType)
		q.PriceSource = domain.PriceSource(priceSource)
		quotes = append(quotes, &q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chain quote rows: %w", err)
	}

	return quotes, nil
}
