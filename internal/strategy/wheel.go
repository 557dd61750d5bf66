package strategy

import "options-income-lab/internal/domain"

// Wheel sells puts on names worth owning, aiming for assignment at a
// discount, then covered calls on the assigned shares.
type Wheel struct {
	TargetEntryDiscount float64
	Weights             WheelWeights
}

// NewWheel creates the wheel strategy.
func NewWheel(targetEntryDiscount float64, w WheelWeights) *Wheel {
	return &Wheel{TargetEntryDiscount: targetEntryDiscount, Weights: w}
}

// ID implements Strategy.
func (s *Wheel) ID() domain.StrategyType {
	return domain.StrategyWheel
}

// OptionType implements Strategy.
func (s *Wheel) OptionType() domain.OptionType {
	return domain.OptionTypePut
}

// Admit accepts every put.
func (s *Wheel) Admit(*domain.ContractRecord, float64) bool {
	return true
}

// CapitalBase is the strike, as for a cash-secured put.
func (s *Wheel) CapitalBase(strike, _ float64) float64 {
	return strike
}

// Derive fills put metrics and the wheel score.
func (s *Wheel) Derive(o *domain.Opportunity) {
	deriveCommon(o, o.Contract.Strike)
	derivePut(o)
	o.WheelScore = s.Weights.AnnualReturn*o.AnnualReturn +
		s.Weights.Discount*o.DiscountPct +
		s.Weights.Fundamental*o.Scores.Fundamental
}

// Qualify requires the effective entry price to sit at least
// TargetEntryDiscount percent below the current price.
func (s *Wheel) Qualify(o *domain.Opportunity) bool {
	return o.DiscountPct >= s.TargetEntryDiscount
}

// PrimaryMetric ranks by wheel score.
func (s *Wheel) PrimaryMetric(o *domain.Opportunity) float64 {
	return o.WheelScore
}
