package reporting

import (
	"fmt"
	"io"
	"math"

	"github.com/gocarina/gocsv"

	"options-income-lab/internal/domain"
)

// OpportunityRow is the flat CSV form of an opportunity, one column per field.
type OpportunityRow struct {
	Rank                  int     `csv:"rank"`
	Strategy              string  `csv:"strategy"`
	Ticker                string  `csv:"ticker"`
	ContractSymbol        string  `csv:"contract_symbol"`
	OptionType            string  `csv:"option_type"`
	Strike                float64 `csv:"strike"`
	Expiration            string  `csv:"expiration"`
	DaysToExpiration      int     `csv:"dte"`
	Bid                   float64 `csv:"bid"`
	Ask                   float64 `csv:"ask"`
	LastPrice             float64 `csv:"last_price"`
	ImpliedVolatility     float64 `csv:"implied_volatility"`
	OpenInterest          int64   `csv:"open_interest"`
	Volume                int64   `csv:"volume"`
	UnderlyingPrice       float64 `csv:"underlying_price"`
	Premium               float64 `csv:"premium"`
	PriceSource           string  `csv:"price_source"`
	TheoreticalPrice      float64 `csv:"theoretical_price"`
	CurrentPrice          float64 `csv:"current_price"`
	Delta                 float64 `csv:"delta"`
	Gamma                 float64 `csv:"gamma"`
	Theta                 float64 `csv:"theta"`
	ProbabilityOTM        float64 `csv:"probability_otm"`
	Moneyness             string  `csv:"moneyness"`
	DistancePct           float64 `csv:"distance_pct"`
	Volatility            float64 `csv:"volatility"`
	IVSubstituted         bool    `csv:"iv_substituted"`
	Degenerate            bool    `csv:"degenerate"`
	TechnicalScore        float64 `csv:"technical_score"`
	FundamentalScore      float64 `csv:"fundamental_score"`
	SentimentScore        float64 `csv:"sentiment_score"`
	EventRiskScore        float64 `csv:"event_risk_score"`
	CompositeScore        float64 `csv:"composite_score"`
	ProbabilityAdjustment float64 `csv:"probability_adjustment"`
	Confidence            string  `csv:"confidence"`
	EnhancedProbability   float64 `csv:"enhanced_probability"`
	CapitalRequired       float64 `csv:"capital_required"`
	AnnualReturn          float64 `csv:"annual_return"`
	MonthlyReturn         float64 `csv:"monthly_return"`
	NetPurchasePrice      float64 `csv:"net_purchase_price"`
	DiscountPct           float64 `csv:"discount_pct"`
	CushionPct            float64 `csv:"cushion_pct"`
	DownsideProtectionPct float64 `csv:"downside_protection_pct"`
	MaxProfitPct          float64 `csv:"max_profit_pct"`
	Breakeven             float64 `csv:"breakeven"`
	RiskRewardScore       float64 `csv:"risk_reward_score"`
	WheelScore            float64 `csv:"wheel_score"`
	MaxContracts          int     `csv:"max_contracts"`
	TotalCapitalRequired  float64 `csv:"total_capital_required"`
	TotalPremium          float64 `csv:"total_premium"`
	OpportunityID         string  `csv:"opportunity_id"`
}

// NewOpportunityRow flattens o. Ratios are rounded to 4 places, money to cents.
func NewOpportunityRow(o *domain.Opportunity) *OpportunityRow {
	c, g, sc := &o.Contract, &o.Greeks, &o.Scores
	return &OpportunityRow{
		Rank:                  o.Rank,
		Strategy:              o.Strategy.String(),
		Ticker:                c.Ticker,
		ContractSymbol:        c.ContractSymbol,
		OptionType:            c.OptionType.String(),
		Strike:                c.Strike,
		Expiration:            c.Expiration.Format("2006-01-02"),
		DaysToExpiration:      g.DaysToExpiration,
		Bid:                   round(c.Bid, 2),
		Ask:                   round(c.Ask, 2),
		LastPrice:             round(c.LastPrice, 2),
		ImpliedVolatility:     round(c.ImpliedVolatility, 4),
		OpenInterest:          c.OpenInterest,
		Volume:                c.Volume,
		UnderlyingPrice:       round(c.UnderlyingPrice, 2),
		Premium:               round(g.Premium, 2),
		PriceSource:           g.PriceSource.String(),
		TheoreticalPrice:      round(g.TheoreticalPrice, 4),
		CurrentPrice:          round(o.CurrentPrice, 2),
		Delta:                 round(g.Delta, 4),
		Gamma:                 round(g.Gamma, 6),
		Theta:                 round(g.Theta, 4),
		ProbabilityOTM:        round(g.ProbabilityOTM, 4),
		Moneyness:             g.Moneyness.String(),
		DistancePct:           round(g.DistancePct, 4),
		Volatility:            round(g.Volatility, 4),
		IVSubstituted:         g.IVSubstituted,
		Degenerate:            g.Degenerate,
		TechnicalScore:        round(sc.Technical, 4),
		FundamentalScore:      round(sc.Fundamental, 4),
		SentimentScore:        round(sc.Sentiment, 4),
		EventRiskScore:        round(sc.EventRisk, 4),
		CompositeScore:        round(sc.Composite, 4),
		ProbabilityAdjustment: round(sc.ProbabilityAdjustment, 4),
		Confidence:            sc.Confidence.String(),
		EnhancedProbability:   round(o.EnhancedProbability, 4),
		CapitalRequired:       round(o.CapitalRequired, 2),
		AnnualReturn:          round(o.AnnualReturn, 4),
		MonthlyReturn:         round(o.MonthlyReturn, 4),
		NetPurchasePrice:      round(o.NetPurchasePrice, 2),
		DiscountPct:           round(o.DiscountPct, 4),
		CushionPct:            round(o.CushionPct, 4),
		DownsideProtectionPct: round(o.DownsideProtectionPct, 4),
		MaxProfitPct:          round(o.MaxProfitPct, 4),
		Breakeven:             round(o.Breakeven, 2),
		RiskRewardScore:       round(o.RiskRewardScore, 4),
		WheelScore:            round(o.WheelScore, 4),
		MaxContracts:          o.MaxContracts,
		TotalCapitalRequired:  round(o.TotalCapitalRequired, 2),
		TotalPremium:          round(o.TotalPremium, 2),
		OpportunityID:         o.OpportunityID,
	}
}

// WriteOpportunitiesCSV writes ranked opportunities as CSV with a header row.
// An empty list still writes the header.
func WriteOpportunitiesCSV(w io.Writer, opps []*domain.Opportunity) error {
	rows := make([]*OpportunityRow, len(opps))
	for i, o := range opps {
		rows[i] = NewOpportunityRow(o)
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// ReadOpportunitiesCSV parses a file written by WriteOpportunitiesCSV.
func ReadOpportunitiesCSV(r io.Reader) ([]*OpportunityRow, error) {
	var rows []*OpportunityRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	r := math.Round(v*p) / p
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}
