package pricing

import (
	"math"
	"time"

	"options-income-lab/internal/domain"
)

// ResolvePremium picks the premium a seller can expect to receive:
// bid, then last traded price, then half the ask.
func ResolvePremium(c *domain.ContractRecord) (float64, domain.PriceSource) {
	switch {
	case c.Bid > 0:
		return c.Bid, domain.PriceSourceBid
	case c.LastPrice > 0:
		return c.LastPrice, domain.PriceSourceLast
	case c.Ask/2 > 0:
		return c.Ask / 2, domain.PriceSourceAskHalf
	default:
		return 0, domain.PriceSourceNone
	}
}

// DaysToExpiration returns whole calendar days from asOf to expiration, floored at 0.
func DaysToExpiration(expiration, asOf time.Time) int {
	days := int(math.Floor(expiration.Sub(asOf).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

// ClassifyMoneyness classifies strike against spot for the option type.
func ClassifyMoneyness(t domain.OptionType, strike, spot float64) domain.Moneyness {
	switch {
	case strike == spot:
		return domain.MoneynessATM
	case t == domain.OptionTypeCall && strike < spot:
		return domain.MoneynessITM
	case t == domain.OptionTypePut && strike > spot:
		return domain.MoneynessITM
	default:
		return domain.MoneynessOTM
	}
}

// DistancePct returns (strike - spot) / spot * 100.
// OTM puts are negative, OTM calls are positive.
func DistancePct(strike, spot float64) float64 {
	if spot <= 0 {
		return 0
	}
	return (strike - spot) / spot * 100
}

// AnnualizedReturn returns (premium / capital) * (365 / days) * 100.
func AnnualizedReturn(premium, capital float64, days int) float64 {
	if capital <= 0 || days <= 0 {
		return 0
	}
	return premium / capital * (DaysPerYear / float64(days)) * 100
}

// MonthlyReturn returns (premium / capital) * (30 / days) * 100.
func MonthlyReturn(premium, capital float64, days int) float64 {
	if capital <= 0 || days <= 0 {
		return 0
	}
	return premium / capital * (30 / float64(days)) * 100
}
