package scoring

// SentimentScorer rates analyst consensus, target upside and coverage breadth.
type SentimentScorer struct{}

// Factor implements Scorer.
func (SentimentScorer) Factor() Factor { return FactorSentiment }

// Score implements Scorer.
func (SentimentScorer) Score(s Subject) float64 {
	if s.Profile == nil {
		return Neutral
	}

	a := s.Profile.Snapshot.Analyst
	cur := s.Profile.Current
	score := Neutral

	// 1 = strong buy, 5 = strong sell.
	if a.RecommendationMean != nil {
		switch rec := *a.RecommendationMean; {
		case rec < 2.0:
			score += 20
		case rec < 2.5:
			score += 10
		case rec < 3.5:
		case rec < 4.5:
			score -= 10
		default:
			score -= 20
		}
	}

	if a.TargetMeanPrice != nil && cur > 0 {
		switch upside := (*a.TargetMeanPrice - cur) / cur * 100; {
		case upside > 20:
			score += 15
		case upside > 10:
			score += 10
		case upside > 0:
			score += 5
		case upside < -10:
			score -= 15
		}
	}

	if a.NumberOfAnalysts != nil {
		switch n := *a.NumberOfAnalysts; {
		case n > 30:
			score += 5
		case n > 15:
			score += 3
		case n < 5:
			score -= 5
		}
	}

	return clamp(score)
}
