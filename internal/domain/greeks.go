package domain

// PriceSource records which quote field supplied the premium.
type PriceSource string

const (
	PriceSourceBid     PriceSource = "bid"
	PriceSourceLast    PriceSource = "last"
	PriceSourceAskHalf PriceSource = "ask_half"
	PriceSourceNone    PriceSource = "none"
)

// String returns the string representation of PriceSource.
func (s PriceSource) String() string {
	return string(s)
}

// IsValid checks if the price source is a valid value.
func (s PriceSource) IsValid() bool {
	switch s {
	case PriceSourceBid, PriceSourceLast, PriceSourceAskHalf, PriceSourceNone:
		return true
	}
	return false
}

// IsStale reports whether the source is a substitute for a live bid.
func (s PriceSource) IsStale() bool {
	return s == PriceSourceLast || s == PriceSourceAskHalf
}

// Moneyness classifies strike relative to spot.
type Moneyness string

const (
	MoneynessITM Moneyness = "ITM"
	MoneynessATM Moneyness = "ATM"
	MoneynessOTM Moneyness = "OTM"
)

// String returns the string representation of Moneyness.
func (m Moneyness) String() string {
	return string(m)
}

// GreeksResult is derived from a ContractRecord and its underlying spot.
type GreeksResult struct {
	DaysToExpiration int         // calendar days, floored at 0
	Premium          float64     // resolved per PriceSource
	PriceSource      PriceSource // provenance of Premium
	TheoreticalPrice float64     // Black-Scholes value
	Delta            float64
	Gamma            float64
	Theta            float64 // per calendar day
	ProbabilityOTM   float64 // percent [0,100]
	Moneyness        Moneyness
	DistancePct      float64 // (strike - spot) / spot * 100, negative for OTM puts
	Volatility       float64 // volatility actually used for pricing
	IVSubstituted    bool    // implied volatility was below floor and replaced
	Degenerate       bool    // intrinsic-value fallback (T <= 0 or sigma <= 0)
}
