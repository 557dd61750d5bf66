package pipeline

import (
	"context"
	"errors"
	"math"
	"time"

	"options-income-lab/internal/domain"
	"options-income-lab/internal/idhash"
	"options-income-lab/internal/pricing"
	"options-income-lab/internal/scoring"
)

// candidate carries one contract through the per-ticker stages.
type candidate struct {
	contract *domain.ContractRecord
	spot     float64
	dte      int
	premium  float64
	source   domain.PriceSource
	opp      *domain.Opportunity
}

type tickerResult struct {
	diag          *Diagnostics
	opportunities []*domain.Opportunity
}

// check returns an exclusion reason, or "" to keep the candidate.
type check func(c *candidate) string

// apply runs one stage over the surviving set. Excluded candidates are
// dropped and never seen by later stages.
func apply(count *StageCount, in []*candidate, fn check) []*candidate {
	out := in[:0]
	for _, c := range in {
		count.In++
		if reason := fn(c); reason != "" {
			count.exclude(reason)
			continue
		}
		count.Out++
		out = append(out, c)
	}
	return out
}

// processTicker runs the coarse through derive stages for one underlying.
func (r *Runner) processTicker(
	ctx context.Context,
	ticker string,
	contracts []*domain.ContractRecord,
	snap *domain.StockSnapshot,
	asOf time.Time,
) (*tickerResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	diag := newDiagnostics(r.strat.ID())
	profile := scoring.NewProfile(snap)
	if profile == nil {
		diag.MissingSnapshots = append(diag.MissingSnapshots, ticker)
	}

	set := make([]*candidate, 0, len(contracts))
	for _, c := range contracts {
		spot := c.UnderlyingPrice
		if profile != nil && profile.Current > 0 {
			spot = profile.Current
		}
		set = append(set, &candidate{contract: c, spot: spot})
	}

	set = apply(diag.Stage(StageCoarse), set, func(c *candidate) string {
		return r.coarse(c, asOf, diag)
	})
	set = apply(diag.Stage(StageEnrich), set, func(c *candidate) string {
		return r.enrich(c, profile, asOf, diag)
	})
	set = apply(diag.Stage(StageReturn), set, func(c *candidate) string {
		base := r.strat.CapitalBase(c.contract.Strike, c.spot)
		if pricing.AnnualizedReturn(c.premium, base, c.dte) < r.cfg.Thresholds.MinAnnualReturn {
			return ReasonAnnualReturn
		}
		return ""
	})
	set = apply(diag.Stage(StageRisk), set, func(c *candidate) string {
		t := r.cfg.Thresholds
		if t.MaxDelta > 0 && math.Abs(c.opp.Greeks.Delta) > t.MaxDelta {
			return ReasonDelta
		}
		if r.probability(c.opp) < t.MinProbabilityOTM {
			return ReasonProbability
		}
		return ""
	})
	set = apply(diag.Stage(StageDistance), set, func(c *candidate) string {
		if math.Abs(c.opp.Greeks.DistancePct) < r.cfg.Thresholds.MinDistancePct {
			return ReasonNearTheMoney
		}
		return ""
	})
	set = apply(diag.Stage(StageCapital), set, func(c *candidate) string {
		alloc := r.allocator.Allocate(r.strat.CapitalBase(c.contract.Strike, c.spot), c.premium)
		if r.cfg.Capital.FilterByCash && !alloc.Affordable() {
			return ReasonUnaffordable
		}
		c.opp.MaxContracts = alloc.MaxContracts
		c.opp.TotalCapitalRequired = alloc.TotalCapitalRequired
		c.opp.TotalPremium = alloc.TotalPremium
		return ""
	})
	set = apply(diag.Stage(StageDerive), set, func(c *candidate) string {
		r.strat.Derive(c.opp)
		if !r.strat.Qualify(c.opp) {
			return ReasonEntryDiscount
		}
		return ""
	})

	out := make([]*domain.Opportunity, 0, len(set))
	for _, c := range set {
		out = append(out, c.opp)
	}
	return &tickerResult{diag: diag, opportunities: out}, nil
}

// coarse applies the cheap pre-enrichment checks.
func (r *Runner) coarse(c *candidate, asOf time.Time, diag *Diagnostics) string {
	t := r.cfg.Thresholds
	k := c.contract

	if k.Strike <= 0 || math.IsNaN(k.Strike) {
		return ReasonInvalidStrike
	}
	c.premium, c.source = pricing.ResolvePremium(k)
	if c.source == domain.PriceSourceNone {
		return ReasonUnpriceable
	}
	diag.PriceSources[c.source]++

	c.dte = pricing.DaysToExpiration(k.Expiration, asOf)
	if c.dte < t.MinDays || c.dte > t.MaxDays {
		return ReasonDTE
	}
	if c.premium < t.MinPremium {
		return ReasonPremium
	}
	if k.Volume < t.MinVolume || k.OpenInterest < t.MinOpenInterest {
		return ReasonLiquidity
	}
	if c.spot > 0 && !r.strat.Admit(k, c.spot) {
		return ReasonStrikeWindow
	}
	return ""
}

// enrich attaches Greeks, factor scores and the enhanced probability.
func (r *Runner) enrich(c *candidate, profile *scoring.Profile, asOf time.Time, diag *Diagnostics) string {
	k := c.contract

	greeks, err := r.engine.Enrich(k, c.spot, asOf)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidSpot) {
			return ReasonNoSpot
		}
		r.logger.WithError(err).WithField("contract", k.Key()).Debug("pricing failed")
		return ReasonPricing
	}

	scores := r.model.Evaluate(scoring.Subject{
		Profile:          profile,
		Strike:           k.Strike,
		OptionType:       k.OptionType,
		DaysToExpiration: greeks.DaysToExpiration,
		AsOf:             asOf,
	})
	enhanced, adj := r.adjuster.Enhance(greeks.ProbabilityOTM, scores.Composite)
	scores.ProbabilityAdjustment = adj

	if greeks.IVSubstituted {
		diag.IVSubstituted++
	}
	if greeks.Degenerate {
		diag.Degenerate++
	}
	if scores.Confidence == domain.ConfidenceLow {
		diag.LowConfidence++
	}

	c.opp = &domain.Opportunity{
		OpportunityID: idhash.ComputeOpportunityID(
			r.strat.ID().String(), k.Ticker, k.OptionType.String(), k.Expiration, k.Strike,
		),
		Strategy:            r.strat.ID(),
		Contract:            *k,
		Greeks:              *greeks,
		Scores:              scores,
		CurrentPrice:        c.spot,
		EnhancedProbability: enhanced,
	}
	return ""
}
