// Package metrics computes per-strategy summary statistics over ranked opportunities.
package metrics

import (
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"options-income-lab/internal/domain"
)

// Summary describes the ranked output of one strategy.
type Summary struct {
	Strategy domain.StrategyType
	Count    int

	// Annual return distribution (percent)
	AnnualReturnMean   float64
	AnnualReturnMedian float64
	AnnualReturnStddev float64
	AnnualReturnMax    float64

	// Probability distribution (percent), theoretical or enhanced per config
	ProbabilityMean   float64
	ProbabilityMedian float64
	ProbabilityStddev float64

	// Totals across every ranked opportunity
	TotalCapitalRequired float64
	TotalPremium         float64
	Contracts            int

	Tickers int // distinct underlyings
}

// Summarize computes the summary of a ranked opportunity list.
// An empty list yields a zero summary for the strategy.
func Summarize(st domain.StrategyType, opps []*domain.Opportunity, useEnhanced bool) *Summary {
	s := &Summary{Strategy: st, Count: len(opps)}
	if len(opps) == 0 {
		return s
	}

	returns := make(stats.Float64Data, len(opps))
	probs := make(stats.Float64Data, len(opps))
	tickers := make(map[string]struct{})
	capital := decimal.Zero
	premium := decimal.Zero

	for i, o := range opps {
		returns[i] = o.AnnualReturn
		if useEnhanced {
			probs[i] = o.EnhancedProbability
		} else {
			probs[i] = o.Greeks.ProbabilityOTM
		}
		tickers[o.Contract.Ticker] = struct{}{}
		capital = capital.Add(decimal.NewFromFloat(o.TotalCapitalRequired))
		premium = premium.Add(decimal.NewFromFloat(o.TotalPremium))
		s.Contracts += o.MaxContracts
	}

	// Errors only occur on empty input, excluded above
	s.AnnualReturnMean, _ = returns.Mean()
	s.AnnualReturnMedian, _ = returns.Median()
	s.AnnualReturnStddev, _ = returns.StandardDeviation()
	s.AnnualReturnMax, _ = returns.Max()
	s.ProbabilityMean, _ = probs.Mean()
	s.ProbabilityMedian, _ = probs.Median()
	s.ProbabilityStddev, _ = probs.StandardDeviation()

	s.TotalCapitalRequired = capital.Round(2).InexactFloat64()
	s.TotalPremium = premium.Round(2).InexactFloat64()
	s.Tickers = len(tickers)

	return s
}

// SortSummaries orders summaries by strategy in report order.
func SortSummaries(summaries []*Summary) {
	order := make(map[domain.StrategyType]int)
	for i, st := range domain.AllStrategies() {
		order[st] = i
	}
	sort.Slice(summaries, func(i, j int) bool {
		oi, oj := order[summaries[i].Strategy], order[summaries[j].Strategy]
		if oi != oj {
			return oi < oj
		}
		return summaries[i].Strategy < summaries[j].Strategy
	})
}
