package strategy

import (
	"options-income-lab/internal/domain"
	"options-income-lab/internal/pricing"
)

// deriveCommon fills fields shared by every strategy.
func deriveCommon(o *domain.Opportunity, capitalBase float64) {
	premium := o.Greeks.Premium
	dte := o.Greeks.DaysToExpiration

	o.CapitalRequired = capitalBase * domain.ContractMultiplier
	o.AnnualReturn = pricing.AnnualizedReturn(premium, capitalBase, dte)
	o.MonthlyReturn = pricing.MonthlyReturn(premium, capitalBase, dte)
	o.RiskRewardScore = o.AnnualReturn * o.EnhancedProbability / 100
}

// derivePut fills cash-secured put entry metrics.
func derivePut(o *domain.Opportunity) {
	strike := o.Contract.Strike
	cur := o.CurrentPrice

	o.NetPurchasePrice = strike - o.Greeks.Premium
	o.Breakeven = o.NetPurchasePrice
	if cur > 0 {
		o.DiscountPct = (cur - o.NetPurchasePrice) / cur * 100
		o.CushionPct = (cur - strike) / cur * 100
	}
}

// deriveCall fills covered call payoff metrics.
func deriveCall(o *domain.Opportunity) {
	strike := o.Contract.Strike
	premium := o.Greeks.Premium
	cur := o.CurrentPrice

	o.Breakeven = cur - premium
	if cur > 0 {
		o.DownsideProtectionPct = premium / cur * 100
		o.MaxProfitPct = (strike + premium - cur) / cur * 100
	}
}
