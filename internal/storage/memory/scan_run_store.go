package memory

import (
	"context"
	"sort"
	"sync"

	"options-income-lab/internal/domain"
	"options-income-lab/internal/storage"
)

// ScanRunStore is an in-memory implementation of storage.ScanRunStore.
type ScanRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ScanRun // keyed by run_id
}

// NewScanRunStore creates a new in-memory scan run store.
func NewScanRunStore() *ScanRunStore {
	return &ScanRunStore{
		data: make(map[string]*domain.ScanRun),
	}
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *ScanRunStore) Insert(_ context.Context, r *domain.ScanRun) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.RunID] = copyRun(r)
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ScanRunStore) GetByID(_ context.Context, runID string) (*domain.ScanRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRun(r), nil
}

// List returns up to limit runs, most recent started_at first.
func (s *ScanRunStore) List(_ context.Context, limit int) ([]*domain.ScanRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ScanRun, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, copyRun(r))
	}

	// Sort by started_at DESC, run_id ASC
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].StartedAt.After(result[j].StartedAt)
		}
		return result[i].RunID < result[j].RunID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func copyRun(r *domain.ScanRun) *domain.ScanRun {
	runCopy := *r
	runCopy.Strategies = append([]domain.StrategyType(nil), r.Strategies...)
	return &runCopy
}

// Verify interface compliance at compile time.
var _ storage.ScanRunStore = (*ScanRunStore)(nil)
