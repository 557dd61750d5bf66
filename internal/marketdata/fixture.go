package marketdata

import (
	"context"
	"fmt"
	"os"
	"sort"

	"options-income-lab/internal/domain"
)

// FixtureProvider serves a chain and snapshots loaded from files.
type FixtureProvider struct {
	chains    map[string][]domain.ContractRecord
	snapshots map[string]*domain.StockSnapshot
}

var _ Provider = (*FixtureProvider)(nil)

// NewFixtureProvider creates a provider from decoded data.
func NewFixtureProvider(contracts []domain.ContractRecord, snapshots map[string]*domain.StockSnapshot) *FixtureProvider {
	p := &FixtureProvider{
		chains:    make(map[string][]domain.ContractRecord),
		snapshots: make(map[string]*domain.StockSnapshot, len(snapshots)),
	}
	for _, c := range contracts {
		p.chains[c.Ticker] = append(p.chains[c.Ticker], c)
	}
	for t, s := range snapshots {
		p.snapshots[t] = s
	}
	return p
}

// LoadFixtureProvider reads a chain CSV and an optional snapshot YAML file.
func LoadFixtureProvider(chainPath, snapshotPath string) (*FixtureProvider, error) {
	f, err := os.Open(chainPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	contracts, err := ReadChainCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", chainPath, err)
	}

	var snapshots map[string]*domain.StockSnapshot
	if snapshotPath != "" {
		sf, err := os.Open(snapshotPath)
		if err != nil {
			return nil, err
		}
		defer sf.Close()

		snapshots, err = ReadSnapshotsYAML(sf)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", snapshotPath, err)
		}
	}

	return NewFixtureProvider(contracts, snapshots), nil
}

// Tickers implements Provider.
func (p *FixtureProvider) Tickers(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(p.chains))
	for t := range p.chains {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// Chain implements Provider.
func (p *FixtureProvider) Chain(ctx context.Context, ticker string) ([]domain.ContractRecord, error) {
	chain, ok := p.chains[ticker]
	if !ok {
		return nil, ErrTickerNotFound
	}
	return append([]domain.ContractRecord(nil), chain...), nil
}

// Snapshot implements Provider.
func (p *FixtureProvider) Snapshot(ctx context.Context, ticker string) (*domain.StockSnapshot, error) {
	s, ok := p.snapshots[ticker]
	if !ok {
		return nil, ErrTickerNotFound
	}
	return s, nil
}
