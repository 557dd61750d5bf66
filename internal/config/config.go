// Package config loads scan settings from defaults, an optional YAML file
// and OIL_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"options-income-lab/internal/domain"
	"options-income-lab/internal/pipeline"
	"options-income-lab/internal/pricing"
	"options-income-lab/internal/scoring"
	"options-income-lab/internal/strategy"
)

// EnvPrefix prefixes every environment override, e.g. OIL_CAPITAL_RESERVE_CASH.
const EnvPrefix = "OIL"

// ErrUnknownStrategy is returned by ScanConfig for an unconfigured strategy.
var ErrUnknownStrategy = errors.New("unknown strategy")

type Config struct {
	Log        LogConfig                 `mapstructure:"log"`
	Postgres   DSNConfig                 `mapstructure:"postgres"`
	ClickHouse DSNConfig                 `mapstructure:"clickhouse"`
	Output     OutputConfig              `mapstructure:"output"`
	Metrics    MetricsConfig             `mapstructure:"metrics"`
	Capital    CapitalConfig             `mapstructure:"capital"`
	Pricing    PricingConfig             `mapstructure:"pricing"`
	Scoring    ScoringConfig             `mapstructure:"scoring"`
	Strategies map[string]StrategyConfig `mapstructure:"strategies"`

	QualityOnly    bool     `mapstructure:"quality_only"`
	QualityTickers []string `mapstructure:"quality_tickers"`
	Workers        int      `mapstructure:"workers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "text"
}

type DSNConfig struct {
	DSN string `mapstructure:"dsn"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

type CapitalConfig struct {
	AvailableCash      float64 `mapstructure:"available_cash"`
	ReserveCash        float64 `mapstructure:"reserve_cash"`
	MaxCashPerPosition float64 `mapstructure:"max_cash_per_position"`
	MaxPositions       int     `mapstructure:"max_positions"`
	FilterByCash       bool    `mapstructure:"filter_by_cash"`
}

type PricingConfig struct {
	RiskFreeRate float64 `mapstructure:"risk_free_rate"`
	MinIV        float64 `mapstructure:"min_iv"`
	FallbackIV   float64 `mapstructure:"fallback_iv"`
}

type ScoringConfig struct {
	Weights       WeightsConfig `mapstructure:"weights"`
	MaxAdjustment float64       `mapstructure:"max_adjustment"`
}

type WeightsConfig struct {
	Technical   float64 `mapstructure:"technical"`
	Fundamental float64 `mapstructure:"fundamental"`
	Sentiment   float64 `mapstructure:"sentiment"`
	EventRisk   float64 `mapstructure:"event_risk"`
}

// StrategyConfig holds the thresholds of one strategy. MaxDelta may be
// written signed (-0.30 for puts); only its magnitude is used.
type StrategyConfig struct {
	MinDays                int     `mapstructure:"min_days"`
	MaxDays                int     `mapstructure:"max_days"`
	MinPremium             float64 `mapstructure:"min_premium"`
	MinAnnualReturn        float64 `mapstructure:"min_annual_return"`
	MinVolume              int64   `mapstructure:"min_volume"`
	MinOpenInterest        int64   `mapstructure:"min_open_interest"`
	MaxDelta               float64 `mapstructure:"max_delta"`
	MinProbabilityOTM      float64 `mapstructure:"min_probability_otm"`
	UseEnhancedProbability bool    `mapstructure:"use_enhanced_probability"`
	MinDistancePct         float64 `mapstructure:"min_distance_pct"`
	TopN                   int     `mapstructure:"top_n"`

	MinStrikeRatio      float64           `mapstructure:"min_strike_ratio"`
	MaxStrikeRatio      float64           `mapstructure:"max_strike_ratio"`
	TargetEntryDiscount float64           `mapstructure:"target_entry_discount"`
	WheelWeights        WheelWeightConfig `mapstructure:"wheel_weights"`
}

type WheelWeightConfig struct {
	AnnualReturn float64 `mapstructure:"annual_return"`
	Discount     float64 `mapstructure:"discount"`
	Fundamental  float64 `mapstructure:"fundamental"`
}

// StrategyKey maps a strategy type to its config section name.
func StrategyKey(st domain.StrategyType) string {
	switch st {
	case domain.StrategyCashSecuredPut:
		return "csp"
	case domain.StrategyCoveredCall:
		return "covered_call"
	case domain.StrategyWheel:
		return "wheel"
	}
	return strings.ToLower(string(st))
}

// ParseStrategy accepts a section name ("csp") or a strategy type ("CSP").
func ParseStrategy(s string) (domain.StrategyType, error) {
	for _, st := range domain.AllStrategies() {
		if strings.EqualFold(s, StrategyKey(st)) || strings.EqualFold(s, st.String()) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("clickhouse.dsn", "")
	v.SetDefault("output.dir", "./out")
	v.SetDefault("metrics.namespace", "options_income_lab")

	v.SetDefault("capital.available_cash", 38000.0)
	v.SetDefault("capital.reserve_cash", 3000.0)
	v.SetDefault("capital.max_cash_per_position", 30000.0)
	v.SetDefault("capital.max_positions", 4)
	v.SetDefault("capital.filter_by_cash", true)

	pc := pricing.DefaultConfig()
	v.SetDefault("pricing.risk_free_rate", pc.RiskFreeRate)
	v.SetDefault("pricing.min_iv", pc.MinIV)
	v.SetDefault("pricing.fallback_iv", pc.FallbackIV)

	w := scoring.DefaultWeights()
	v.SetDefault("scoring.weights.technical", w.Technical)
	v.SetDefault("scoring.weights.fundamental", w.Fundamental)
	v.SetDefault("scoring.weights.sentiment", w.Sentiment)
	v.SetDefault("scoring.weights.event_risk", w.EventRisk)
	v.SetDefault("scoring.max_adjustment", 15.0)

	v.SetDefault("quality_only", false)
	v.SetDefault("quality_tickers", pipeline.DefaultQualityTickers())
	v.SetDefault("workers", 4)

	sp := strategy.DefaultParams()
	for _, st := range domain.AllStrategies() {
		prefix := "strategies." + StrategyKey(st) + "."
		t := pipeline.DefaultThresholds(st)

		maxDelta := t.MaxDelta
		if st.OptionType() == domain.OptionTypePut {
			maxDelta = -maxDelta
		}

		v.SetDefault(prefix+"min_days", t.MinDays)
		v.SetDefault(prefix+"max_days", t.MaxDays)
		v.SetDefault(prefix+"min_premium", t.MinPremium)
		v.SetDefault(prefix+"min_annual_return", t.MinAnnualReturn)
		v.SetDefault(prefix+"min_volume", t.MinVolume)
		v.SetDefault(prefix+"min_open_interest", t.MinOpenInterest)
		v.SetDefault(prefix+"max_delta", maxDelta)
		v.SetDefault(prefix+"min_probability_otm", t.MinProbabilityOTM)
		v.SetDefault(prefix+"use_enhanced_probability", t.UseEnhancedProbability)
		v.SetDefault(prefix+"min_distance_pct", t.MinDistancePct)
		v.SetDefault(prefix+"top_n", t.TopN)

		v.SetDefault(prefix+"min_strike_ratio", sp.MinStrikeRatio)
		v.SetDefault(prefix+"max_strike_ratio", sp.MaxStrikeRatio)
		v.SetDefault(prefix+"target_entry_discount", sp.TargetEntryDiscount)
		v.SetDefault(prefix+"wheel_weights.annual_return", sp.Wheel.AnnualReturn)
		v.SetDefault(prefix+"wheel_weights.discount", sp.Wheel.Discount)
		v.SetDefault(prefix+"wheel_weights.fundamental", sp.Wheel.Fundamental)
	}
}

// ScanConfig returns the pipeline configuration for one strategy. The
// result shares no memory with c.
func (c *Config) ScanConfig(st domain.StrategyType) (pipeline.Config, error) {
	sc, ok := c.Strategies[StrategyKey(st)]
	if !ok {
		return pipeline.Config{}, fmt.Errorf("%w: %s", ErrUnknownStrategy, st)
	}

	return pipeline.Config{
		Strategy: st,
		Thresholds: pipeline.Thresholds{
			MinDays:                sc.MinDays,
			MaxDays:                sc.MaxDays,
			MinPremium:             sc.MinPremium,
			MinVolume:              sc.MinVolume,
			MinOpenInterest:        sc.MinOpenInterest,
			MinAnnualReturn:        sc.MinAnnualReturn,
			MaxDelta:               math.Abs(sc.MaxDelta),
			MinProbabilityOTM:      sc.MinProbabilityOTM,
			UseEnhancedProbability: sc.UseEnhancedProbability,
			MinDistancePct:         sc.MinDistancePct,
			TopN:                   sc.TopN,
		},
		StrategyParams: strategy.Params{
			MinStrikeRatio:      sc.MinStrikeRatio,
			MaxStrikeRatio:      sc.MaxStrikeRatio,
			TargetEntryDiscount: sc.TargetEntryDiscount,
			Wheel: strategy.WheelWeights{
				AnnualReturn: sc.WheelWeights.AnnualReturn,
				Discount:     sc.WheelWeights.Discount,
				Fundamental:  sc.WheelWeights.Fundamental,
			},
		},
		QualityOnly:    c.QualityOnly,
		QualityTickers: append([]string(nil), c.QualityTickers...),
		Capital: domain.CapitalConfig{
			AvailableCash:      c.Capital.AvailableCash,
			ReserveCash:        c.Capital.ReserveCash,
			MaxCashPerPosition: c.Capital.MaxCashPerPosition,
			MaxPositions:       c.Capital.MaxPositions,
			FilterByCash:       c.Capital.FilterByCash,
		},
		Pricing: pricing.Config{
			RiskFreeRate: c.Pricing.RiskFreeRate,
			MinIV:        c.Pricing.MinIV,
			FallbackIV:   c.Pricing.FallbackIV,
		},
		Weights: scoring.Weights{
			Technical:   c.Scoring.Weights.Technical,
			Fundamental: c.Scoring.Weights.Fundamental,
			Sentiment:   c.Scoring.Weights.Sentiment,
			EventRisk:   c.Scoring.Weights.EventRisk,
		},
		MaxAdjustment: c.Scoring.MaxAdjustment,
		Workers:       c.Workers,
	}, nil
}
