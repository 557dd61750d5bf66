// Package verification checks that a persisted scan run reproduces
// from the same snapshot and configuration.
package verification

import (
	"math"

	"options-income-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and recomputed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // recomputed value
}

// Result contains the result of verifying a single opportunity.
type Result struct {
	OpportunityID string
	Strategy      domain.StrategyType
	Match         bool              // true if all fields match
	Divergences   []FieldDivergence // list of divergent fields
}

// Report contains results for one run.
type Report struct {
	RunID     string
	Total     int      // stored opportunities verified
	Matched   int      // opportunities that matched exactly
	Divergent int      // opportunities with divergences
	Missing   []string // stored but not recomputed
	Extra     []string // recomputed but not stored
	Results   []Result // individual results, stored order
}

// OK reports whether the run reproduced exactly.
func (r *Report) OK() bool {
	return r.Divergent == 0 && len(r.Missing) == 0 && len(r.Extra) == 0
}

// CompareOpportunities compares two opportunities and returns divergences.
// Uses FloatTolerance for float64 comparisons.
func CompareOpportunities(stored, recomputed *domain.Opportunity) []FieldDivergence {
	var divergences []FieldDivergence

	exact := func(field string, a, b interface{}) {
		if a != b {
			divergences = append(divergences, FieldDivergence{Field: field, Expected: a, Actual: b})
		}
	}
	float := func(field string, a, b float64) {
		if !floatEquals(a, b) {
			divergences = append(divergences, FieldDivergence{Field: field, Expected: a, Actual: b})
		}
	}

	// Identity
	exact("OpportunityID", stored.OpportunityID, recomputed.OpportunityID)
	exact("Strategy", stored.Strategy, recomputed.Strategy)
	exact("Rank", stored.Rank, recomputed.Rank)
	exact("Contract", stored.Contract.Key(), recomputed.Contract.Key())

	// Pricing
	exact("DaysToExpiration", stored.Greeks.DaysToExpiration, recomputed.Greeks.DaysToExpiration)
	float("Premium", stored.Greeks.Premium, recomputed.Greeks.Premium)
	exact("PriceSource", stored.Greeks.PriceSource, recomputed.Greeks.PriceSource)
	float("Delta", stored.Greeks.Delta, recomputed.Greeks.Delta)
	float("ProbabilityOTM", stored.Greeks.ProbabilityOTM, recomputed.Greeks.ProbabilityOTM)
	exact("Moneyness", stored.Greeks.Moneyness, recomputed.Greeks.Moneyness)

	// Scores
	float("Composite", stored.Scores.Composite, recomputed.Scores.Composite)
	exact("Confidence", stored.Scores.Confidence, recomputed.Scores.Confidence)
	float("EnhancedProbability", stored.EnhancedProbability, recomputed.EnhancedProbability)

	// Returns
	float("AnnualReturn", stored.AnnualReturn, recomputed.AnnualReturn)
	float("WheelScore", stored.WheelScore, recomputed.WheelScore)
	float("RiskRewardScore", stored.RiskRewardScore, recomputed.RiskRewardScore)

	// Allocation
	exact("MaxContracts", stored.MaxContracts, recomputed.MaxContracts)
	float("TotalCapitalRequired", stored.TotalCapitalRequired, recomputed.TotalCapitalRequired)
	float("TotalPremium", stored.TotalPremium, recomputed.TotalPremium)

	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
