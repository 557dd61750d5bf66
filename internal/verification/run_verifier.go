package verification

import (
	"context"
	"errors"
	"fmt"

	"options-income-lab/internal/domain"
	"options-income-lab/internal/marketdata"
	"options-income-lab/internal/orchestrator"
	"options-income-lab/internal/pipeline"
	"options-income-lab/internal/storage"
)

var (
	// ErrRunNotFound is returned when run ID doesn't exist.
	ErrRunNotFound = errors.New("scan run not found")

	// ErrConfigMismatch is returned when the configuration hash differs from the run's.
	ErrConfigMismatch = errors.New("configuration differs from run")
)

// RunVerifier recomputes a stored run and compares its opportunities.
type RunVerifier struct {
	runStore         storage.ScanRunStore
	opportunityStore storage.OpportunityStore
	provider         marketdata.Provider
	configs          []pipeline.Config
}

// RunVerifierOptions contains configuration for creating a RunVerifier.
type RunVerifierOptions struct {
	RunStore         storage.ScanRunStore
	OpportunityStore storage.OpportunityStore
	Provider         marketdata.Provider // same snapshot the run scanned
	Configs          []pipeline.Config   // same strategies, in the run's order
}

// NewRunVerifier creates a new RunVerifier.
func NewRunVerifier(opts RunVerifierOptions) *RunVerifier {
	return &RunVerifier{
		runStore:         opts.RunStore,
		opportunityStore: opts.OpportunityStore,
		provider:         opts.Provider,
		configs:          opts.Configs,
	}
}

// Verify recomputes runID at its as-of time and compares every opportunity.
func (v *RunVerifier) Verify(ctx context.Context, runID string) (*Report, error) {
	// 1. Load stored run and opportunities
	run, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	stored, err := v.opportunityStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load stored opportunities: %w", err)
	}

	// 2. Recompute without persistence or file output
	orch, err := orchestrator.New(orchestrator.Options{
		Provider: v.provider,
		Configs:  v.configs,
	})
	if err != nil {
		return nil, err
	}
	if orch.ConfigHash() != run.ConfigHash {
		return nil, fmt.Errorf("%w: run %s has %s, current %s", ErrConfigMismatch, runID, run.ConfigHash, orch.ConfigHash())
	}

	res, err := orch.WithRunID(func() string { return runID }).Run(ctx, run.AsOf)
	if err != nil {
		return nil, fmt.Errorf("recompute run: %w", err)
	}

	recomputed := make(map[string]*domain.Opportunity)
	for _, r := range res.Results {
		for _, o := range r.Opportunities {
			recomputed[key(o)] = o
		}
	}

	// 3. Compare results
	report := &Report{RunID: runID, Total: len(stored)}
	seen := make(map[string]struct{}, len(stored))
	for _, s := range stored {
		k := key(s)
		seen[k] = struct{}{}

		r, ok := recomputed[k]
		if !ok {
			report.Missing = append(report.Missing, s.OpportunityID)
			continue
		}

		divergences := CompareOpportunities(s, r)
		result := Result{
			OpportunityID: s.OpportunityID,
			Strategy:      s.Strategy,
			Match:         len(divergences) == 0,
			Divergences:   divergences,
		}
		if result.Match {
			report.Matched++
		} else {
			report.Divergent++
		}
		report.Results = append(report.Results, result)
	}

	// Deterministic order: results are in report order
	for _, r := range res.Results {
		for _, o := range r.Opportunities {
			if _, ok := seen[key(o)]; !ok {
				report.Extra = append(report.Extra, o.OpportunityID)
			}
		}
	}

	return report, nil
}

// key identifies an opportunity within a run.
func key(o *domain.Opportunity) string {
	return string(o.Strategy) + "|" + o.OpportunityID
}
