package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"options-income-lab/internal/domain"
	"options-income-lab/internal/storage"
)

// OpportunityStore implements storage.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *Pool
}

// NewOpportunityStore creates a new OpportunityStore.
func NewOpportunityStore(pool *Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OpportunityStore = (*OpportunityStore)(nil)

const opportunityColumns = `
	run_id, opportunity_id, strategy, rank,
	ticker, contract_symbol, option_type, strike, expiration,
	bid, ask, last_price, implied_volatility, open_interest, volume, underlying_price,
	days_to_expiration, premium, price_source, theoretical_price,
	delta, gamma, theta, probability_otm, moneyness, distance_pct,
	volatility, iv_substituted, degenerate,
	technical_score, fundamental_score, sentiment_score, event_risk_score,
	composite_score, probability_adjustment, confidence,
	current_price, enhanced_probability, capital_required, annual_return, monthly_return,
	net_purchase_price, discount_pct, cushion_pct, downside_protection_pct, max_profit_pct,
	breakeven, risk_reward_score, wheel_score,
	max_contracts, total_capital_required, total_premium
`

// InsertBulk adds a run's opportunities atomically. Fails entire batch on
// any duplicate (run_id, opportunity_id).
func (s *OpportunityStore) InsertBulk(ctx context.Context, runID string, opps []*domain.Opportunity) (err error) {
	if len(opps) == 0 {
		return nil
	}
	if runID == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { s.pool.observe("insert_opportunities", start, err) }(time.Now())

	return s.pool.inTx(ctx, func(tx pgx.Tx) error {
		return insertOpportunities(ctx, tx, runID, opps)
	})
}

func insertOpportunities(ctx context.Context, tx pgx.Tx, runID string, opps []*domain.Opportunity) error {
	query := `INSERT INTO opportunities (` + opportunityColumns + `) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		$21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
		$31, $32, $33, $34, $35, $36, $37, $38, $39, $40,
		$41, $42, $43, $44, $45, $46, $47, $48, $49, $50,
		$51, $52
	)`

	for _, o := range opps {
		if o == nil || o.OpportunityID == "" {
			return storage.ErrInvalidInput
		}
		c, g, sc := o.Contract, o.Greeks, o.Scores

		_, err := tx.Exec(ctx, query,
			runID, o.OpportunityID, string(o.Strategy), o.Rank,
			c.Ticker, c.ContractSymbol, string(c.OptionType), c.Strike, c.Expiration,
			c.Bid, c.Ask, c.LastPrice, c.ImpliedVolatility, c.OpenInterest, c.Volume, c.UnderlyingPrice,
			g.DaysToExpiration, g.Premium, string(g.PriceSource), g.TheoreticalPrice,
			g.Delta, g.Gamma, g.Theta, g.ProbabilityOTM, string(g.Moneyness), g.DistancePct,
			g.Volatility, g.IVSubstituted, g.Degenerate,
			sc.Technical, sc.Fundamental, sc.Sentiment, sc.EventRisk,
			sc.Composite, sc.ProbabilityAdjustment, string(sc.Confidence),
			o.CurrentPrice, o.EnhancedProbability, o.CapitalRequired, o.AnnualReturn, o.MonthlyReturn,
			o.NetPurchasePrice, o.DiscountPct, o.CushionPct, o.DownsideProtectionPct, o.MaxProfitPct,
			o.Breakeven, o.RiskRewardScore, o.WheelScore,
			o.MaxContracts, o.TotalCapitalRequired, o.TotalPremium,
		)
		if err != nil {
			return translate(err, "insert opportunity "+o.OpportunityID)
		}
	}
	return nil
}

// GetByRun retrieves a run's opportunities ordered by strategy, rank ASC.
func (s *OpportunityStore) GetByRun(ctx context.Context, runID string) (_ []*domain.Opportunity, err error) {
	defer func(start time.Time) { s.pool.observe("get_opportunities", start, err) }(time.Now())

	query := `SELECT ` + opportunityColumns + `
		FROM opportunities
		WHERE run_id = $1
		ORDER BY strategy ASC, rank ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get opportunities by run: %w", err)
	}
	defer rows.Close()

	return scanOpportunities(rows)
}

// GetByRunAndStrategy retrieves one strategy's opportunities ordered by rank ASC.
func (s *OpportunityStore) GetByRunAndStrategy(ctx context.Context, runID string, strategy domain.StrategyType) (_ []*domain.Opportunity, err error) {
	defer func(start time.Time) { s.pool.observe("get_opportunities", start, err) }(time.Now())

	query := `SELECT ` + opportunityColumns + `
		FROM opportunities
		WHERE run_id = $1 AND strategy = $2
		ORDER BY rank ASC
	`

	rows, err := s.pool.Query(ctx, query, runID, string(strategy))
	if err != nil {
		return nil, fmt.Errorf("get opportunities by run and strategy: %w", err)
	}
	defer rows.Close()

	return scanOpportunities(rows)
}

// scanOpportunities scans multiple rows into a slice of Opportunity.
func scanOpportunities(rows pgx.Rows) ([]*domain.Opportunity, error) {
	var opps []*domain.Opportunity

	for rows.Next() {
		var o domain.Opportunity
		var runID, strategy, optionType, priceSource, moneyness, confidence string
		c, g, sc := &o.Contract, &o.Greeks, &o.Scores

		err := rows.Scan(
			&runID, &o.OpportunityID, &strategy, &o.Rank,
			&c.Ticker, &c.ContractSymbol, &optionType, &c.Strike, &c.Expiration,
			&c.Bid, &c.Ask, &c.LastPrice, &c.ImpliedVolatility, &c.OpenInterest, &c.Volume, &c.UnderlyingPrice,
			&g.DaysToExpiration, &g.Premium, &priceSource, &g.TheoreticalPrice,
			&g.Delta, &g.Gamma, &g.Theta, &g.ProbabilityOTM, &moneyness, &g.DistancePct,
			&g.Volatility, &g.IVSubstituted, &g.Degenerate,
			&sc.Technical, &sc.Fundamental, &sc.Sentiment, &sc.EventRisk,
			&sc.Composite, &sc.ProbabilityAdjustment, &confidence,
			&o.CurrentPrice, &o.EnhancedProbability, &o.CapitalRequired, &o.AnnualReturn, &o.MonthlyReturn,
			&o.NetPurchasePrice, &o.DiscountPct, &o.CushionPct, &o.DownsideProtectionPct, &o.MaxProfitPct,
			&o.Breakeven, &o.RiskRewardScore, &o.WheelScore,
			&o.MaxContracts, &o.TotalCapitalRequired, &o.TotalPremium,
		)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity row: %w", err)
		}

		o.Strategy = domain.StrategyType(strategy)
		c.OptionType = domain.OptionType(optionType)
		c.Expiration = c.Expiration.UTC()
		g.PriceSource = domain.PriceSource(priceSource)
		g.Moneyness = domain.Moneyness(moneyness)
		sc.Confidence = domain.Confidence(confidence)
		opps = append(opps, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate opportunity rows: %w", err)
	}

	return opps, nil
}
