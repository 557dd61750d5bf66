package domain

import "time"

// ContractMultiplier is the number of shares one equity option contract controls.
const ContractMultiplier = 100

// OptionType represents the right conveyed by an option contract.
type OptionType string

const (
	OptionTypePut  OptionType = "PUT"
	OptionTypeCall OptionType = "CALL"
)

// String returns the string representation of OptionType.
func (t OptionType) String() string {
	return string(t)
}

// IsValid checks if the option type is a valid value.
func (t OptionType) IsValid() bool {
	return t == OptionTypePut || t == OptionTypeCall
}

// ContractRecord represents one quoted option contract from a chain snapshot.
// Immutable once fetched.
type ContractRecord struct {
	Ticker            string     // underlying symbol
	ContractSymbol    string     // OCC-style symbol, optional
	Strike            float64    // strike price
	Expiration        time.Time  // expiration date (UTC midnight)
	OptionType        OptionType // PUT | CALL
	Bid               float64    // best bid, 0 when absent
	Ask               float64    // best ask, 0 when absent
	LastPrice         float64    // last traded price, 0 when absent
	ImpliedVolatility float64    // annualized, decimal (0.30 = 30%)
	OpenInterest      int64
	Volume            int64
	UnderlyingPrice   float64 // spot quoted with the chain, 0 when absent
}

// Key returns the natural key of the contract.
func (c *ContractRecord) Key() string {
	return c.Ticker + "|" + c.OptionType.String() + "|" + c.Expiration.Format("2006-01-02") + "|" + formatStrike(c.Strike)
}
