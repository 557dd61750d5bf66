package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"options-income-lab/internal/domain"
	"options-income-lab/internal/storage"
)

// ChainSnapshotStore is an in-memory implementation of storage.ChainSnapshotStore.
type ChainSnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ChainQuote // keyed by run_id|contract key
}

// NewChainSnapshotStore creates a new in-memory chain snapshot store.
func NewChainSnapshotStore() *ChainSnapshotStore {
	return &ChainSnapshotStore{
		data: make(map[string]*domain.ChainQuote),
	}
}

func quoteKey(q *domain.ChainQuote) string {
	return q.RunID + "|" + q.Contract.Key()
}

// InsertBulk appends quotes. Fails entire batch on any duplicate.
func (s *ChainSnapshotStore) InsertBulk(_ context.Context, quotes []*domain.ChainQuote) error {
	if len(quotes) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(quotes))
	for _, q := range quotes {
		if q == nil || q.RunID == "" || q.Contract.Ticker == "" {
			return storage.ErrInvalidInput
		}
		key := quoteKey(q)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[key]; exists {
			return storage.ErrDuplicateKey
		}
		batch[key] = struct{}{}
	}

	for _, q := range quotes {
		quoteCopy := *q
		s.data[quoteKey(q)] = &quoteCopy
	}
	return nil
}

// GetByTicker retrieves quotes for a ticker observed within [start, end] (inclusive).
func (s *ChainSnapshotStore) GetByTicker(_ context.Context, ticker string, start, end time.Time) ([]*domain.ChainQuote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ChainQuote
	for _, q := range s.data {
		if q.Contract.Ticker != ticker || q.AsOf.Before(start) || q.AsOf.After(end) {
			continue
		}
		quoteCopy := *q
		result = append(result, &quoteCopy)
	}

	// Sort by as_of, expiration, strike ASC
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.AsOf.Equal(b.AsOf) {
			return a.AsOf.Before(b.AsOf)
		}
		if !a.Contract.Expiration.Equal(b.Contract.Expiration) {
			return a.Contract.Expiration.Before(b.Contract.Expiration)
		}
		if a.Contract.Strike != b.Contract.Strike {
			return a.Contract.Strike < b.Contract.Strike
		}
		return a.Contract.OptionType < b.Contract.OptionType
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.ChainSnapshotStore = (*ChainSnapshotStore)(nil)
