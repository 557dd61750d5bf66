package pricing

import (
	"fmt"
	"time"

	"options-income-lab/internal/domain"
)

// Config holds pricing parameters.
type Config struct {
	RiskFreeRate float64 // continuously compounded, decimal
	MinIV        float64 // implied volatility floor; 0 disables substitution
	FallbackIV   float64 // substituted when IV is below MinIV
}

// DefaultConfig returns the standard pricing parameters.
func DefaultConfig() Config {
	return Config{
		RiskFreeRate: 0.045,
		MinIV:        0.10,
		FallbackIV:   0.45,
	}
}

// Engine derives GreeksResult values for quoted contracts.
// Engine is stateless and safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates a pricing engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Enrich computes days to expiration, resolved premium, Greeks, probability
// OTM, moneyness and signed distance for a contract.
func (e *Engine) Enrich(c *domain.ContractRecord, spot float64, asOf time.Time) (*domain.GreeksResult, error) {
	if c.Strike <= 0 {
		return nil, fmt.Errorf("%s: %w", c.Key(), ErrInvalidStrike)
	}
	if spot <= 0 {
		return nil, fmt.Errorf("%s: %w", c.Key(), ErrInvalidSpot)
	}

	premium, source := ResolvePremium(c)
	if source == domain.PriceSourceNone {
		return nil, fmt.Errorf("%s: %w", c.Key(), ErrUnpriceable)
	}

	dte := DaysToExpiration(c.Expiration, asOf)
	vol, substituted := e.effectiveVolatility(c.ImpliedVolatility)

	res, err := BlackScholes(Inputs{
		Spot:       spot,
		Strike:     c.Strike,
		Years:      float64(dte) / DaysPerYear,
		Volatility: vol,
		Rate:       e.cfg.RiskFreeRate,
		Type:       c.OptionType,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Key(), err)
	}

	return &domain.GreeksResult{
		DaysToExpiration: dte,
		Premium:          premium,
		PriceSource:      source,
		TheoreticalPrice: res.Price,
		Delta:            res.Delta,
		Gamma:            res.Gamma,
		Theta:            res.Theta,
		ProbabilityOTM:   res.ProbabilityOTM,
		Moneyness:        ClassifyMoneyness(c.OptionType, c.Strike, spot),
		DistancePct:      DistancePct(c.Strike, spot),
		Volatility:       vol,
		IVSubstituted:    substituted,
		Degenerate:       res.Degenerate,
	}, nil
}

func (e *Engine) effectiveVolatility(iv float64) (float64, bool) {
	if e.cfg.MinIV > 0 && iv < e.cfg.MinIV {
		return e.cfg.FallbackIV, true
	}
	return iv, false
}
