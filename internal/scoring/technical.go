package scoring

import "options-income-lab/internal/domain"

// TechnicalScorer rewards established uptrends and strikes with a cushion.
type TechnicalScorer struct{}

// Factor implements Scorer.
func (TechnicalScorer) Factor() Factor { return FactorTechnical }

// Score implements Scorer.
func (TechnicalScorer) Score(s Subject) float64 {
	if s.Profile == nil || s.Profile.Current <= 0 {
		return Neutral
	}

	score := Neutral
	cur := s.Profile.Current
	ind := s.Profile.Indicators

	// Trend.
	if ind.SMAShort != nil && ind.SMAMedium != nil {
		short, medium := *ind.SMAShort, *ind.SMAMedium
		switch {
		case cur > short && short > medium:
			score += 15
		case cur > short && short < medium:
			score += 5
		case cur < short && short > medium:
			score -= 5
		case cur < short && short < medium:
			score -= 15
		}
	}
	if ind.SMALong != nil {
		if cur > *ind.SMALong {
			score += 5
		} else if cur < *ind.SMALong {
			score -= 5
		}
	}

	// Distance from the medium average.
	if ind.SMAMedium != nil && *ind.SMAMedium > 0 {
		pct := (cur - *ind.SMAMedium) / *ind.SMAMedium * 100
		switch {
		case pct > 10:
			score += 10
		case pct > 5:
			score += 5
		case pct < -10:
			score -= 10
		case pct < -5:
			score -= 5
		}
	}

	// 52-week range.
	if ind.High52Week != nil && ind.Low52Week != nil && *ind.High52Week > *ind.Low52Week {
		pos := (cur - *ind.Low52Week) / (*ind.High52Week - *ind.Low52Week) * 100
		switch {
		case pos > 80:
			score += 5
		case pos > 60:
			score += 10
		case pos > 40:
			score += 5
		case pos < 20:
			score -= 5
		}
	}

	// Volume surge direction.
	if ind.LastVolume != nil && ind.AvgVolume != nil && ind.LastChange != nil {
		ratio := *ind.LastVolume / *ind.AvgVolume
		if ratio > 1.5 {
			if *ind.LastChange > 0 {
				score += 5
			} else {
				score -= 5
			}
		}
	}

	// Strike cushion, measured in the seller's favorable direction.
	if s.Strike > 0 {
		cushion := (cur - s.Strike) / cur * 100
		if s.OptionType == domain.OptionTypeCall {
			cushion = -cushion
		}
		switch {
		case cushion > 10:
			score += 5
		case cushion > 5:
			score += 3
		case cushion < -5:
			score -= 10
		}
	}

	return clamp(score)
}
