package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"options-income-lab/internal/domain"
	"options-income-lab/internal/storage"
)

// StageCountStore is an in-memory implementation of storage.StageCountStore.
type StageCountStore struct {
	mu   sync.RWMutex
	data map[string]*domain.StageCountRecord // keyed by composite key
}

// NewStageCountStore creates a new in-memory stage count store.
func NewStageCountStore() *StageCountStore {
	return &StageCountStore{
		data: make(map[string]*domain.StageCountRecord),
	}
}

func stageKey(r *domain.StageCountRecord) string {
	return fmt.Sprintf("%s|%s|%s", r.RunID, r.Strategy, r.Stage)
}

// InsertBulk appends stage counts. Fails entire batch on any duplicate.
func (s *StageCountStore) InsertBulk(_ context.Context, records []*domain.StageCountRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r == nil || r.RunID == "" || r.Stage == "" {
			return storage.ErrInvalidInput
		}
		key := stageKey(r)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[key]; exists {
			return storage.ErrDuplicateKey
		}
		batch[key] = struct{}{}
	}

	for _, r := range records {
		s.data[stageKey(r)] = copyStageCount(r)
	}
	return nil
}

// GetByRun retrieves a run's counts ordered by strategy, position ASC.
func (s *StageCountStore) GetByRun(_ context.Context, runID string) ([]*domain.StageCountRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.StageCountRecord
	for _, r := range s.data {
		if r.RunID == runID {
			result = append(result, copyStageCount(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Strategy != result[j].Strategy {
			return result[i].Strategy < result[j].Strategy
		}
		return result[i].Position < result[j].Position
	})

	return result, nil
}

func copyStageCount(r *domain.StageCountRecord) *domain.StageCountRecord {
	rec := *r
	rec.Excluded = make(map[string]int, len(r.Excluded))
	for k, v := range r.Excluded {
		rec.Excluded[k] = v
	}
	return &rec
}

// Verify interface compliance at compile time.
var _ storage.StageCountStore = (*StageCountStore)(nil)
