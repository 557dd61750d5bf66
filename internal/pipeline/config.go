package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"options-income-lab/internal/domain"
	"options-income-lab/internal/pricing"
	"options-income-lab/internal/probability"
	"options-income-lab/internal/scoring"
	"options-income-lab/internal/strategy"
)

// ErrInvalidThresholds is returned for inconsistent filter thresholds.
var ErrInvalidThresholds = errors.New("invalid pipeline thresholds")

// Thresholds are the per-strategy filter settings.
type Thresholds struct {
	MinDays                int
	MaxDays                int
	MinPremium             float64 // per share
	MinVolume              int64
	MinOpenInterest        int64
	MinAnnualReturn        float64 // percent
	MaxDelta               float64 // magnitude ceiling; 0 disables
	MinProbabilityOTM      float64 // percent
	UseEnhancedProbability bool
	MinDistancePct         float64 // absolute distance from spot, percent
	TopN                   int     // 0 keeps every ranked record
}

// Validate checks threshold consistency.
func (t Thresholds) Validate() error {
	switch {
	case t.MinDays < 0 || t.MaxDays < 0:
		return fmt.Errorf("%w: days must not be negative", ErrInvalidThresholds)
	case t.MaxDays < t.MinDays:
		return fmt.Errorf("%w: max_days %d < min_days %d", ErrInvalidThresholds, t.MaxDays, t.MinDays)
	case t.MinPremium < 0 || t.MinAnnualReturn < 0 || t.MinDistancePct < 0:
		return fmt.Errorf("%w: minimums must not be negative", ErrInvalidThresholds)
	case t.MinVolume < 0 || t.MinOpenInterest < 0:
		return fmt.Errorf("%w: liquidity floors must not be negative", ErrInvalidThresholds)
	case t.MinProbabilityOTM < 0 || t.MinProbabilityOTM > 100:
		return fmt.Errorf("%w: min_probability_otm must be within [0,100]", ErrInvalidThresholds)
	case t.TopN < 0:
		return fmt.Errorf("%w: top_n must not be negative", ErrInvalidThresholds)
	}
	return nil
}

// Config is the immutable input of one strategy run.
// Callers pass it by value; the runner keeps its own copy.
type Config struct {
	Strategy       domain.StrategyType
	Thresholds     Thresholds
	StrategyParams strategy.Params
	QualityOnly    bool
	QualityTickers []string
	Capital        domain.CapitalConfig
	Pricing        pricing.Config
	Weights        scoring.Weights
	MaxAdjustment  float64
	Workers        int
}

// DefaultConfig returns the standard configuration for a strategy.
func DefaultConfig(st domain.StrategyType) Config {
	cfg := Config{
		Strategy:       st,
		Thresholds:     DefaultThresholds(st),
		StrategyParams: strategy.DefaultParams(),
		QualityTickers: DefaultQualityTickers(),
		Capital: domain.CapitalConfig{
			AvailableCash:      38000,
			ReserveCash:        3000,
			MaxCashPerPosition: 30000,
			MaxPositions:       4,
			FilterByCash:       true,
		},
		Pricing:       pricing.DefaultConfig(),
		Weights:       scoring.DefaultWeights(),
		MaxAdjustment: probability.DefaultMaxAdjustment,
		Workers:       4,
	}
	return cfg
}

// DefaultThresholds returns the standard thresholds for a strategy.
func DefaultThresholds(st domain.StrategyType) Thresholds {
	switch st {
	case domain.StrategyCoveredCall:
		return Thresholds{
			MinDays:         20,
			MaxDays:         45,
			MinPremium:      0.50,
			MinVolume:       10,
			MinOpenInterest: 50,
			MinAnnualReturn: 15,
			TopN:            20,
		}
	case domain.StrategyWheel:
		return Thresholds{
			MinDays:                20,
			MaxDays:                45,
			MinPremium:             0.50,
			MinVolume:              100,
			MinOpenInterest:        100,
			MinAnnualReturn:        20,
			MaxDelta:               0.30,
			MinProbabilityOTM:      65,
			UseEnhancedProbability: true,
			MinDistancePct:         2.0,
			TopN:                   20,
		}
	default:
		return Thresholds{
			MinDays:                20,
			MaxDays:                60,
			MinPremium:             0.50,
			MinVolume:              100,
			MinOpenInterest:        100,
			MinAnnualReturn:        12,
			MaxDelta:               0.30,
			MinProbabilityOTM:      65,
			UseEnhancedProbability: true,
			MinDistancePct:         2.0,
			TopN:                   20,
		}
	}
}

// DefaultQualityTickers returns the standard quality allow-list.
func DefaultQualityTickers() []string {
	return []string{
		"AAPL", "MSFT", "GOOGL", "GOOG", "AMZN", "META", "NVDA", "AMD", "TSLA",
		"QQQ", "SPY", "IWM", "DIA",
	}
}

// clone returns a deep copy so later mutation by the caller is not observed.
func (c Config) clone() Config {
	out := c
	out.QualityTickers = append([]string(nil), c.QualityTickers...)
	sort.Strings(out.QualityTickers)
	return out
}
