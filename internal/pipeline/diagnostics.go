package pipeline

import (
	"sort"

	"options-income-lab/internal/domain"
)

// Stage identifies a pipeline stage. Stages run in the order of Stages().
type Stage string

const (
	StageUniverse Stage = "universe"
	StageCoarse   Stage = "coarse"
	StageEnrich   Stage = "enrich"
	StageReturn   Stage = "return"
	StageRisk     Stage = "risk"
	StageDistance Stage = "distance"
	StageCapital  Stage = "capital"
	StageDerive   Stage = "derive"
	StageRank     Stage = "rank"
)

// Stages returns every stage in execution order.
func Stages() []Stage {
	return []Stage{
		StageUniverse, StageCoarse, StageEnrich, StageReturn, StageRisk,
		StageDistance, StageCapital, StageDerive, StageRank,
	}
}

// Exclusion reasons.
const (
	ReasonOptionType    = "option_type"
	ReasonNotQuality    = "not_quality"
	ReasonDuplicate     = "duplicate"
	ReasonInvalidStrike = "invalid_strike"
	ReasonUnpriceable   = "unpriceable"
	ReasonDTE           = "dte"
	ReasonPremium       = "premium"
	ReasonLiquidity     = "liquidity"
	ReasonStrikeWindow  = "strike_window"
	ReasonNoSpot        = "no_spot"
	ReasonPricing       = "pricing_error"
	ReasonAnnualReturn  = "annual_return"
	ReasonDelta         = "delta"
	ReasonProbability   = "probability"
	ReasonNearTheMoney  = "near_the_money"
	ReasonUnaffordable  = "unaffordable"
	ReasonEntryDiscount = "entry_discount"
	ReasonTruncated     = "truncated"
)

// StageCount records how many records entered and survived a stage.
type StageCount struct {
	Stage    Stage
	In       int
	Out      int
	Excluded map[string]int // reason -> count
}

// Diagnostics summarizes one strategy run.
type Diagnostics struct {
	Strategy         domain.StrategyType
	Stages           []StageCount // ordered as Stages()
	PriceSources     map[domain.PriceSource]int
	IVSubstituted    int
	Degenerate       int
	LowConfidence    int
	MissingSnapshots []string // tickers scored neutral for lack of a snapshot
	DeployableCash   float64
	PositionBudget   float64
}

func newDiagnostics(st domain.StrategyType) *Diagnostics {
	d := &Diagnostics{
		Strategy:     st,
		PriceSources: make(map[domain.PriceSource]int),
	}
	for _, s := range Stages() {
		d.Stages = append(d.Stages, StageCount{Stage: s, Excluded: make(map[string]int)})
	}
	return d
}

// Stage returns the count entry for a stage.
func (d *Diagnostics) Stage(s Stage) *StageCount {
	for i := range d.Stages {
		if d.Stages[i].Stage == s {
			return &d.Stages[i]
		}
	}
	return nil
}

// StaleQuotes returns the number of contracts priced from last or ask/2.
func (d *Diagnostics) StaleQuotes() int {
	return d.PriceSources[domain.PriceSourceLast] + d.PriceSources[domain.PriceSourceAskHalf]
}

// Reasons returns a stage's exclusion reasons sorted by name.
func (c *StageCount) Reasons() []string {
	out := make([]string, 0, len(c.Excluded))
	for r := range c.Excluded {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

func (c *StageCount) exclude(reason string) {
	c.Excluded[reason]++
}

// merge adds another run's counts into d. Stage slices share the same order.
func (d *Diagnostics) merge(o *Diagnostics) {
	for i := range d.Stages {
		src := o.Stages[i]
		d.Stages[i].In += src.In
		d.Stages[i].Out += src.Out
		for r, n := range src.Excluded {
			d.Stages[i].Excluded[r] += n
		}
	}
	for s, n := range o.PriceSources {
		d.PriceSources[s] += n
	}
	d.IVSubstituted += o.IVSubstituted
	d.Degenerate += o.Degenerate
	d.LowConfidence += o.LowConfidence
	d.MissingSnapshots = append(d.MissingSnapshots, o.MissingSnapshots...)
}
