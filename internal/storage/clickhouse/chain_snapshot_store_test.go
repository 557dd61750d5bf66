package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-income-lab/internal/domain"
	"options-income-lab/internal/storage"
)

func quote(runID string, asOf time.Time, ticker string, strike float64) *domain.ChainQuote {
	return &domain.ChainQuote{
		RunID: runID,
		AsOf:  asOf,
		Contract: domain.ContractRecord{
			Ticker:            ticker,
			ContractSymbol:    ticker + "250404P",
			Strike:            strike,
			Expiration:        time.Date(2025, 4, 4, 0, 0, 0, 0, time.UTC),
			OptionType:        domain.OptionTypePut,
			Bid:               2.10,
			Ask:               2.30,
			LastPrice:         2.20,
			ImpliedVolatility: 0.31,
			OpenInterest:      1200,
			Volume:            340,
			UnderlyingPrice:   150,
		},
		Premium:     2.10,
		PriceSource: domain.PriceSourceBid,
	}
}

func TestChainSnapshotStore_InsertAndGetByTicker(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewChainSnapshotStore(conn)
	ctx := context.Background()

	day1 := time.Date(2025, 3, 3, 14, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	err := store.InsertBulk(ctx, []*domain.ChainQuote{
		quote("run-1", day1, "AAPL", 145),
		quote("run-1", day1, "AAPL", 140),
		quote("run-1", day1, "MSFT", 400),
	})
	require.NoError(t, err)
	err = store.InsertBulk(ctx, []*domain.ChainQuote{quote("run-2", day2, "AAPL", 145)})
	require.NoError(t, err)

	got, err := store.GetByTicker(ctx, "AAPL", day1, day2)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Ordered by as_of, then strike
	assert.Equal(t, 140.0, got[0].Contract.Strike)
	assert.Equal(t, 145.0, got[1].Contract.Strike)
	assert.Equal(t, "run-2", got[2].RunID)

	// Round trip of non-key fields
	assert.Equal(t, domain.PriceSourceBid, got[0].PriceSource)
	assert.Equal(t, domain.OptionTypePut, got[0].Contract.OptionType)
	assert.Equal(t, int64(1200), got[0].Contract.OpenInterest)
	assert.True(t, got[0].AsOf.Equal(day1))
	assert.Equal(t, "2025-04-04", got[0].Contract.Expiration.Format("2006-01-02"))

	got, err = store.GetByTicker(ctx, "AAPL", day2, day2)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestChainSnapshotStore_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewChainSnapshotStore(conn)
	ctx := context.Background()
	asOf := time.Date(2025, 3, 3, 14, 0, 0, 0, time.UTC)

	// Intra-batch duplicate
	err := store.InsertBulk(ctx, []*domain.ChainQuote{
		quote("run-1", asOf, "AAPL", 145),
		quote("run-1", asOf, "AAPL", 145),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	require.NoError(t, store.InsertBulk(ctx, []*domain.ChainQuote{quote("run-1", asOf, "AAPL", 145)}))

	// Rewriting a stored run
	err = store.InsertBulk(ctx, []*domain.ChainQuote{quote("run-1", asOf, "AAPL", 140)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByTicker(ctx, "AAPL", asOf, asOf)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestChainSnapshotStore_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewChainSnapshotStore(conn)
	err := store.InsertBulk(context.Background(), []*domain.ChainQuote{quote("", time.Now(), "AAPL", 145)})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	assert.NoError(t, store.InsertBulk(context.Background(), nil))
}
