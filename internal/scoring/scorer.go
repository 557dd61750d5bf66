// Package scoring computes heuristic 0-100 quality and risk scores for an
// underlying and blends them into a composite.
package scoring

import (
	"time"

	"options-income-lab/internal/domain"
)

// Neutral is the score assigned when data for a factor is unavailable.
const Neutral = 50.0

// Factor identifies one scoring dimension.
type Factor string

const (
	FactorTechnical   Factor = "technical"
	FactorFundamental Factor = "fundamental"
	FactorSentiment   Factor = "sentiment"
	FactorEventRisk   Factor = "event_risk"
)

// String returns the string representation of Factor.
func (f Factor) String() string {
	return string(f)
}

// Subject is the contract-specific input to a scorer.
type Subject struct {
	Profile          *Profile // nil when no snapshot is available
	Strike           float64
	OptionType       domain.OptionType
	DaysToExpiration int
	AsOf             time.Time
}

// Scorer produces one 0-100 score for a subject.
type Scorer interface {
	Factor() Factor
	Score(s Subject) float64
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
