// Package reporting renders scan results as CSV, Markdown and console tables.
package reporting

import (
	"time"

	"options-income-lab/internal/domain"
	"options-income-lab/internal/metrics"
	"options-income-lab/internal/pipeline"
)

// Report represents one multi-strategy scan.
type Report struct {
	// Metadata
	GeneratedAt   time.Time
	RunID         string
	AsOf          time.Time
	MarketSession string
	ConfigHash    string

	// Strategy sections in report order
	Sections []Section
}

// Section holds one strategy's ranked output and diagnostics.
type Section struct {
	Strategy      domain.StrategyType
	Summary       *metrics.Summary
	Diagnostics   *pipeline.Diagnostics
	Opportunities []*domain.Opportunity // ranked
}

// NewSection builds a section from a pipeline result.
func NewSection(res *pipeline.Result, useEnhanced bool) Section {
	return Section{
		Strategy:      res.Strategy,
		Summary:       metrics.Summarize(res.Strategy, res.Opportunities, useEnhanced),
		Diagnostics:   res.Diagnostics,
		Opportunities: res.Opportunities,
	}
}
