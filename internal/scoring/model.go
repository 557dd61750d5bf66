package scoring

import (
	"errors"
	"fmt"

	"options-income-lab/internal/domain"
)

// ErrInvalidWeights is returned when weights are negative or all zero.
var ErrInvalidWeights = errors.New("invalid factor weights")

// Weights sets the contribution of each factor to the composite.
type Weights struct {
	Technical   float64
	Fundamental float64
	Sentiment   float64
	EventRisk   float64
}

// DefaultWeights returns 0.35/0.25/0.20/0.20.
func DefaultWeights() Weights {
	return Weights{Technical: 0.35, Fundamental: 0.25, Sentiment: 0.20, EventRisk: 0.20}
}

// Validate checks that weights are non-negative with a positive sum.
func (w Weights) Validate() error {
	byFactor := w.byFactor()
	for _, f := range Factors() {
		if v := byFactor[f]; v < 0 {
			return fmt.Errorf("%w: %s weight %v is negative", ErrInvalidWeights, f, v)
		}
	}
	if w.sum() <= 0 {
		return fmt.Errorf("%w: weights sum to zero", ErrInvalidWeights)
	}
	return nil
}

// For returns the weight of a factor.
func (w Weights) For(f Factor) float64 {
	return w.byFactor()[f]
}

// Factors returns every factor in composite order.
func Factors() []Factor {
	return []Factor{FactorTechnical, FactorFundamental, FactorSentiment, FactorEventRisk}
}

func (w Weights) byFactor() map[Factor]float64 {
	return map[Factor]float64{
		FactorTechnical:   w.Technical,
		FactorFundamental: w.Fundamental,
		FactorSentiment:   w.Sentiment,
		FactorEventRisk:   w.EventRisk,
	}
}

func (w Weights) sum() float64 {
	return w.Technical + w.Fundamental + w.Sentiment + w.EventRisk
}

// Model evaluates a fixed set of scorers and combines them.
type Model struct {
	scorers []Scorer
	weights Weights
}

// NewModel creates a model with the four standard scorers.
func NewModel(w Weights) (*Model, error) {
	return NewModelWithScorers(w, TechnicalScorer{}, FundamentalScorer{}, SentimentScorer{}, EventRiskScorer{})
}

// NewModelWithScorers creates a model over an explicit scorer set.
func NewModelWithScorers(w Weights, scorers ...Scorer) (*Model, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Model{scorers: scorers, weights: w}, nil
}

// Weights returns the model weights.
func (m *Model) Weights() Weights {
	return m.weights
}

// Evaluate scores a subject. The adjustment field is left for the
// probability adjuster.
func (m *Model) Evaluate(s Subject) domain.FactorScores {
	out := domain.FactorScores{
		Technical:   Neutral,
		Fundamental: Neutral,
		Sentiment:   Neutral,
		EventRisk:   Neutral,
		Confidence:  ConfidenceOf(s.Profile),
	}

	var total, weightSum float64
	for _, sc := range m.scorers {
		v := clamp(sc.Score(s))
		switch sc.Factor() {
		case FactorTechnical:
			out.Technical = v
		case FactorFundamental:
			out.Fundamental = v
		case FactorSentiment:
			out.Sentiment = v
		case FactorEventRisk:
			out.EventRisk = v
		}
		w := m.weights.For(sc.Factor())
		total += w * v
		weightSum += w
	}

	out.Composite = Neutral
	if weightSum > 0 {
		out.Composite = clamp(total / weightSum)
	}
	return out
}

// ConfidenceOf grades how complete the supplementary data is.
func ConfidenceOf(p *Profile) domain.Confidence {
	if p == nil || p.Indicators.SMAMedium == nil {
		return domain.ConfidenceLow
	}
	snap := p.Snapshot
	if snap.Fundamentals.TrailingPE != nil && snap.Analyst.RecommendationMean != nil {
		return domain.ConfidenceHigh
	}
	return domain.ConfidenceMedium
}
