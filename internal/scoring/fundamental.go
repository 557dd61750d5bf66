package scoring

// FundamentalScorer rates business quality from valuation, profitability,
// growth, leverage and beta. Absent ratios contribute nothing.
type FundamentalScorer struct{}

// Factor implements Scorer.
func (FundamentalScorer) Factor() Factor { return FactorFundamental }

// Score implements Scorer.
func (FundamentalScorer) Score(s Subject) float64 {
	if s.Profile == nil {
		return Neutral
	}

	f := s.Profile.Snapshot.Fundamentals
	score := Neutral

	if f.TrailingPE != nil && f.ForwardPE != nil {
		pe := *f.ForwardPE
		switch {
		case pe >= 15 && pe <= 30:
			score += 10
		case pe < 15:
			score += 5
		case pe > 50:
			score -= 10
		case pe > 35:
			score -= 5
		}
	}

	if f.ProfitMargins != nil {
		switch m := *f.ProfitMargins; {
		case m > 0.25:
			score += 10
		case m > 0.15:
			score += 5
		case m < 0.05:
			score -= 10
		}
	}

	if f.ReturnOnEquity != nil {
		switch roe := *f.ReturnOnEquity; {
		case roe > 0.20:
			score += 5
		case roe > 0.10:
			score += 3
		case roe < 0.05:
			score -= 5
		}
	}

	if f.RevenueGrowth != nil {
		switch g := *f.RevenueGrowth; {
		case g > 0.20:
			score += 5
		case g > 0.10:
			score += 3
		case g < 0:
			score -= 5
		}
	}

	if f.EarningsGrowth != nil {
		switch g := *f.EarningsGrowth; {
		case g > 0.15:
			score += 5
		case g < 0:
			score -= 5
		}
	}

	if f.DebtToEquity != nil {
		switch de := *f.DebtToEquity; {
		case de < 50:
			score += 10
		case de < 100:
			score += 5
		case de > 200:
			score -= 10
		case de > 150:
			score -= 5
		}
	}

	if f.Beta != nil {
		switch b := *f.Beta; {
		case b >= 0.8 && b <= 1.2:
			score += 5
		case b > 1.5:
			score -= 5
		}
	}

	return clamp(score)
}
