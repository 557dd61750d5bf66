package strategy

import "options-income-lab/internal/domain"

// Strategy supplies the per-strategy rules of an opportunity scan.
type Strategy interface {
	// ID returns the strategy type.
	ID() domain.StrategyType

	// OptionType returns the option type the strategy sells.
	OptionType() domain.OptionType

	// Admit applies strategy-specific contract constraints before enrichment.
	Admit(c *domain.ContractRecord, spot float64) bool

	// CapitalBase returns the per-share capital used for return calculations.
	CapitalBase(strike, spot float64) float64

	// Derive fills strategy-specific fields on an enriched opportunity.
	Derive(o *domain.Opportunity)

	// Qualify reports whether a derived opportunity meets strategy targets.
	Qualify(o *domain.Opportunity) bool

	// PrimaryMetric returns the value opportunities are ranked by, descending.
	PrimaryMetric(o *domain.Opportunity) float64
}

// Params holds strategy parameters that are not pipeline thresholds.
type Params struct {
	// Covered call strike window as a multiple of spot. Zero disables a bound.
	MinStrikeRatio float64
	MaxStrikeRatio float64

	// Wheel entry requirement and score blend.
	TargetEntryDiscount float64 // percent
	Wheel               WheelWeights
}

// WheelWeights blends annual return, entry discount and fundamental score.
type WheelWeights struct {
	AnnualReturn float64
	Discount     float64
	Fundamental  float64
}

// DefaultParams returns the standard strategy parameters.
func DefaultParams() Params {
	return Params{
		MinStrikeRatio:      0.95,
		MaxStrikeRatio:      1.50,
		TargetEntryDiscount: 5,
		Wheel:               WheelWeights{AnnualReturn: 0.4, Discount: 0.3, Fundamental: 0.3},
	}
}
