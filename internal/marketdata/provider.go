// Package marketdata defines the market-data provider boundary and a
// file-backed implementation used for fixtures and offline scans.
package marketdata

import (
	"context"
	"errors"

	"options-income-lab/internal/domain"
)

// ErrTickerNotFound is returned when the provider has no data for a ticker.
var ErrTickerNotFound = errors.New("ticker not found")

// Provider supplies option chains and stock snapshots. Implementations own
// retries, rate limiting and caching; results may be partially populated.
type Provider interface {
	// Tickers returns the underlyings with chain data, sorted.
	Tickers(ctx context.Context) ([]string, error)

	// Chain returns every quoted contract for a ticker.
	Chain(ctx context.Context, ticker string) ([]domain.ContractRecord, error)

	// Snapshot returns the stock snapshot for a ticker, or ErrTickerNotFound.
	Snapshot(ctx context.Context, ticker string) (*domain.StockSnapshot, error)
}
