package memory

import (
	"context"
	"sort"
	"sync"

	"options-income-lab/internal/domain"
	"options-income-lab/internal/storage"
)

// OpportunityStore is an in-memory implementation of storage.OpportunityStore.
type OpportunityStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*domain.Opportunity // run_id -> opportunity_id -> record
}

// NewOpportunityStore creates a new in-memory opportunity store.
func NewOpportunityStore() *OpportunityStore {
	return &OpportunityStore{
		data: make(map[string]map[string]*domain.Opportunity),
	}
}

// InsertBulk adds a run's opportunities atomically. Fails entire batch on any duplicate.
func (s *OpportunityStore) InsertBulk(_ context.Context, runID string, opps []*domain.Opportunity) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(opps) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[runID]

	// Track keys in this batch to detect intra-batch duplicates
	batch := make(map[string]struct{}, len(opps))
	for _, o := range opps {
		if o == nil || o.OpportunityID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := existing[o.OpportunityID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[o.OpportunityID]; exists {
			return storage.ErrDuplicateKey
		}
		batch[o.OpportunityID] = struct{}{}
	}

	if existing == nil {
		existing = make(map[string]*domain.Opportunity, len(opps))
		s.data[runID] = existing
	}
	for _, o := range opps {
		oppCopy := *o
		existing[o.OpportunityID] = &oppCopy
	}
	return nil
}

// GetByRun retrieves a run's opportunities ordered by strategy, rank ASC.
func (s *OpportunityStore) GetByRun(_ context.Context, runID string) ([]*domain.Opportunity, error) {
	return s.filter(runID, func(*domain.Opportunity) bool { return true }), nil
}

// GetByRunAndStrategy retrieves one strategy's opportunities ordered by rank ASC.
func (s *OpportunityStore) GetByRunAndStrategy(_ context.Context, runID string, strategy domain.StrategyType) ([]*domain.Opportunity, error) {
	return s.filter(runID, func(o *domain.Opportunity) bool { return o.Strategy == strategy }), nil
}

func (s *OpportunityStore) filter(runID string, keep func(*domain.Opportunity) bool) []*domain.Opportunity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Opportunity
	for _, o := range s.data[runID] {
		if keep(o) {
			oppCopy := *o
			result = append(result, &oppCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Strategy != result[j].Strategy {
			return result[i].Strategy < result[j].Strategy
		}
		if result[i].Rank != result[j].Rank {
			return result[i].Rank < result[j].Rank
		}
		return result[i].OpportunityID < result[j].OpportunityID
	})
	return result
}

// Verify interface compliance at compile time.
var _ storage.OpportunityStore = (*OpportunityStore)(nil)
