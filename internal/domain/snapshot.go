package domain

import "time"

// PriceBar represents one daily close/volume observation.
type PriceBar struct {
	Date   time.Time
	Close  float64
	Volume float64
}

// Fundamentals holds valuation, profitability, growth and leverage ratios.
// Nil fields are absent from the provider.
type Fundamentals struct {
	TrailingPE     *float64
	ForwardPE      *float64
	ProfitMargins  *float64 // decimal
	ReturnOnEquity *float64 // decimal
	RevenueGrowth  *float64 // decimal, year over year
	EarningsGrowth *float64 // decimal, year over year
	DebtToEquity   *float64 // percent, as reported (45.0 = 0.45x)
	Beta           *float64
	DividendYield  *float64
	MarketCap      *float64
}

// AnalystConsensus holds sell-side consensus data.
type AnalystConsensus struct {
	RecommendationMean *float64 // 1 = strong buy, 5 = strong sell
	TargetMeanPrice    *float64
	NumberOfAnalysts   *int
}

// Events holds upcoming corporate event dates.
type Events struct {
	NextEarnings   *time.Time
	NextExDividend *time.Time
}

// StockSnapshot represents the point-in-time state of an underlying.
// One snapshot per ticker per scan; read-only.
type StockSnapshot struct {
	Ticker       string
	CurrentPrice float64
	History      []PriceBar // ordered by Date ASC
	High52Week   *float64   // derived from History when nil
	Low52Week    *float64   // derived from History when nil
	Fundamentals Fundamentals
	Analyst      AnalystConsensus
	Events       Events
}
