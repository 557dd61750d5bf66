package pipeline

import (
	"sort"

	"options-income-lab/internal/domain"
)

// rank orders opportunities by the strategy's primary metric descending,
// then probability descending, then ticker, expiration, strike and id
// ascending. The result is truncated to TopN and ranks are assigned from 1.
func (r *Runner) rank(opps []*domain.Opportunity, count *StageCount) []*domain.Opportunity {
	count.In = len(opps)

	sort.SliceStable(opps, func(i, j int) bool {
		a, b := opps[i], opps[j]
		if ma, mb := r.strat.PrimaryMetric(a), r.strat.PrimaryMetric(b); ma != mb {
			return ma > mb
		}
		if pa, pb := r.probability(a), r.probability(b); pa != pb {
			return pa > pb
		}
		if a.Contract.Ticker != b.Contract.Ticker {
			return a.Contract.Ticker < b.Contract.Ticker
		}
		if !a.Contract.Expiration.Equal(b.Contract.Expiration) {
			return a.Contract.Expiration.Before(b.Contract.Expiration)
		}
		if a.Contract.Strike != b.Contract.Strike {
			return a.Contract.Strike < b.Contract.Strike
		}
		return a.OpportunityID < b.OpportunityID
	})

	if n := r.cfg.Thresholds.TopN; n > 0 && len(opps) > n {
		count.Excluded[ReasonTruncated] += len(opps) - n
		opps = opps[:n]
	}
	for i, o := range opps {
		o.Rank = i + 1
	}
	count.Out = len(opps)
	return opps
}
