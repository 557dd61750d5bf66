package strategy

import "options-income-lab/internal/domain"

// CashSecuredPut sells puts fully collateralized by cash.
type CashSecuredPut struct{}

// NewCashSecuredPut creates the cash-secured put strategy.
func NewCashSecuredPut() *CashSecuredPut {
	return &CashSecuredPut{}
}

// ID implements Strategy.
func (s *CashSecuredPut) ID() domain.StrategyType {
	return domain.StrategyCashSecuredPut
}

// OptionType implements Strategy.
func (s *CashSecuredPut) OptionType() domain.OptionType {
	return domain.OptionTypePut
}

// Admit accepts every put.
func (s *CashSecuredPut) Admit(*domain.ContractRecord, float64) bool {
	return true
}

// CapitalBase is the strike: assignment buys 100 shares at strike.
func (s *CashSecuredPut) CapitalBase(strike, _ float64) float64 {
	return strike
}

// Derive fills net purchase price, discount, cushion and returns.
func (s *CashSecuredPut) Derive(o *domain.Opportunity) {
	deriveCommon(o, o.Contract.Strike)
	derivePut(o)
}

// Qualify accepts every derived put.
func (s *CashSecuredPut) Qualify(*domain.Opportunity) bool {
	return true
}

// PrimaryMetric ranks by risk/reward: annual return weighted by probability OTM.
func (s *CashSecuredPut) PrimaryMetric(o *domain.Opportunity) float64 {
	return o.RiskRewardScore
}
