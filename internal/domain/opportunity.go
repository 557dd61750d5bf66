package domain

import (
	"strconv"
	"time"
)

// StrategyType identifies a premium-selling strategy.
type StrategyType string

const (
	StrategyCashSecuredPut StrategyType = "CSP"
	StrategyCoveredCall    StrategyType = "COVERED_CALL"
	StrategyWheel          StrategyType = "WHEEL"
)

// String returns the string representation of StrategyType.
func (s StrategyType) String() string {
	return string(s)
}

// IsValid checks if the strategy type is a valid value.
func (s StrategyType) IsValid() bool {
	switch s {
	case StrategyCashSecuredPut, StrategyCoveredCall, StrategyWheel:
		return true
	}
	return false
}

// OptionType returns the option type the strategy sells.
func (s StrategyType) OptionType() OptionType {
	if s == StrategyCoveredCall {
		return OptionTypeCall
	}
	return OptionTypePut
}

// AllStrategies returns every strategy in report order.
func AllStrategies() []StrategyType {
	return []StrategyType{StrategyCashSecuredPut, StrategyCoveredCall, StrategyWheel}
}

// Opportunity is the final joined record for one contract under one strategy.
// Never mutated after ranking.
type Opportunity struct {
	OpportunityID string // deterministic hash
	Strategy      StrategyType
	Rank          int // 1-based after ranking

	Contract ContractRecord
	Greeks   GreeksResult
	Scores   FactorScores

	CurrentPrice        float64
	EnhancedProbability float64 // percent [0,100]

	// Returns
	CapitalRequired float64 // per contract
	AnnualReturn    float64 // percent
	MonthlyReturn   float64 // percent

	// CSP / wheel
	NetPurchasePrice float64
	DiscountPct      float64 // (current - net purchase) / current * 100
	CushionPct       float64 // (current - strike) / current * 100

	// Covered call
	DownsideProtectionPct float64 // premium / current * 100
	MaxProfitPct          float64 // (strike + premium - current) / current * 100

	Breakeven       float64
	RiskRewardScore float64 // annual * probability / 100
	WheelScore      float64

	// Capital allocation
	MaxContracts         int
	TotalCapitalRequired float64
	TotalPremium         float64
}

func formatStrike(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ScanRun records one invocation of the pipeline.
type ScanRun struct {
	RunID         string
	StartedAt     time.Time
	AsOf          time.Time // snapshot time used for DTE
	Strategies    []StrategyType
	ConfigHash    string // short hash of the effective configuration
	Opportunities int
	MarketSession string
}

// ChainQuote is one quoted contract as observed by a scan.
type ChainQuote struct {
	RunID       string
	AsOf        time.Time
	Contract    ContractRecord
	Premium     float64
	PriceSource PriceSource
}

// StageCountRecord is the persisted form of one pipeline stage's counts.
type StageCountRecord struct {
	RunID    string
	AsOf     time.Time
	Strategy StrategyType
	Stage    string
	Position int // execution order, 0-based
	In       int
	Out      int
	Excluded map[string]int // reason -> count
}
