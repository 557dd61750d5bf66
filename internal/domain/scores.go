package domain

// Confidence reflects how much supplementary data backed the factor scores.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// String returns the string representation of Confidence.
func (c Confidence) String() string {
	return string(c)
}

// FactorScores holds the four independent 0-100 scores and their blend.
type FactorScores struct {
	Technical             float64
	Fundamental           float64
	Sentiment             float64
	EventRisk             float64
	Composite             float64 // weighted, clamped to [0,100]
	ProbabilityAdjustment float64 // percentage points, bounded by the adjuster cap
	Confidence            Confidence
}
