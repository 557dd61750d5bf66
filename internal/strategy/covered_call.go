package strategy

import "options-income-lab/internal/domain"

// CoveredCall sells calls against 100 owned shares per contract.
type CoveredCall struct {
	MinStrikeRatio float64
	MaxStrikeRatio float64
}

// NewCoveredCall creates the covered call strategy.
// Strikes outside [minRatio, maxRatio] x spot are not admitted; a zero ratio disables that bound.
func NewCoveredCall(minRatio, maxRatio float64) *CoveredCall {
	return &CoveredCall{MinStrikeRatio: minRatio, MaxStrikeRatio: maxRatio}
}

// ID implements Strategy.
func (s *CoveredCall) ID() domain.StrategyType {
	return domain.StrategyCoveredCall
}

// OptionType implements Strategy.
func (s *CoveredCall) OptionType() domain.OptionType {
	return domain.OptionTypeCall
}

// Admit enforces the strike window around spot.
func (s *CoveredCall) Admit(c *domain.ContractRecord, spot float64) bool {
	if s.MinStrikeRatio > 0 && c.Strike < spot*s.MinStrikeRatio {
		return false
	}
	if s.MaxStrikeRatio > 0 && c.Strike > spot*s.MaxStrikeRatio {
		return false
	}
	return true
}

// CapitalBase is the share price: the capital tied up is the owned stock.
func (s *CoveredCall) CapitalBase(_, spot float64) float64 {
	return spot
}

// Derive fills downside protection, max profit, breakeven and returns.
func (s *CoveredCall) Derive(o *domain.Opportunity) {
	deriveCommon(o, o.CurrentPrice)
	deriveCall(o)
}

// Qualify accepts every derived call.
func (s *CoveredCall) Qualify(*domain.Opportunity) bool {
	return true
}

// PrimaryMetric ranks by risk/reward: annual return weighted by probability OTM.
func (s *CoveredCall) PrimaryMetric(o *domain.Opportunity) float64 {
	return o.RiskRewardScore
}
