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

func TestStageCountStore_InsertAndGetByRun(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewStageCountStore(conn)
	ctx := context.Background()
	asOf := time.Date(2025, 3, 3, 14, 0, 0, 0, time.UTC)

	records := []*domain.StageCountRecord{
		{RunID: "run-1", AsOf: asOf, Strategy: domain.StrategyWheel, Stage: "universe", Position: 0, In: 10, Out: 10, Excluded: map[string]int{}},
		{RunID: "run-1", AsOf: asOf, Strategy: domain.StrategyCashSecuredPut, Stage: "coarse", Position: 1, In: 10, Out: 6,
			Excluded: map[string]int{"dte": 3, "liquidity": 1}},
		{RunID: "run-1", AsOf: asOf, Strategy: domain.StrategyCashSecuredPut, Stage: "universe", Position: 0, In: 10, Out: 10, Excluded: map[string]int{}},
	}
	require.NoError(t, store.InsertBulk(ctx, records))

	got, err := store.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, domain.StrategyCashSecuredPut, got[0].Strategy)
	assert.Equal(t, "universe", got[0].Stage)
	assert.Equal(t, "coarse", got[1].Stage)
	assert.Equal(t, 6, got[1].Out)
	assert.Equal(t, map[string]int{"dte": 3, "liquidity": 1}, got[1].Excluded)
	assert.Equal(t, domain.StrategyWheel, got[2].Strategy)

	empty, err := store.GetByRun(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStageCountStore_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewStageCountStore(conn)
	ctx := context.Background()
	rec := &domain.StageCountRecord{RunID: "run-1", Strategy: domain.StrategyCashSecuredPut, Stage: "rank", Position: 8, In: 3, Out: 3}

	require.NoError(t, store.InsertBulk(ctx, []*domain.StageCountRecord{rec}))

	err := store.InsertBulk(ctx, []*domain.StageCountRecord{rec})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	err = store.InsertBulk(ctx, []*domain.StageCountRecord{
		{RunID: "run-2", Strategy: domain.StrategyWheel, Stage: "rank"},
		{RunID: "run-2", Strategy: domain.StrategyWheel, Stage: "rank"},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}
