package scoring

import (
	"time"

	"options-income-lab/internal/domain"
)

// Event-risk penalties. An earnings release within a week of today or within
// the final week before expiration leaves the seller no time to recover.
const (
	EarningsPenaltyImminent = 85.0
	EarningsPenaltyNear     = 60.0
	EarningsPenaltyInPeriod = 40.0
	DividendPenaltyCall     = 15.0
	DividendPenaltyPut      = 5.0
	imminentDays            = 7
	nearDays                = 14
)

// EventRiskScorer starts at 100 and subtracts for known events falling
// inside the option's remaining life.
type EventRiskScorer struct{}

// Factor implements Scorer.
func (EventRiskScorer) Factor() Factor { return FactorEventRisk }

// Score implements Scorer.
func (EventRiskScorer) Score(s Subject) float64 {
	if s.Profile == nil {
		return Neutral
	}

	ev := s.Profile.Snapshot.Events
	score := 100.0

	if days, ok := daysInLife(ev.NextEarnings, s.AsOf, s.DaysToExpiration); ok {
		remaining := s.DaysToExpiration - days
		switch {
		case days < imminentDays || remaining < imminentDays:
			score -= EarningsPenaltyImminent
		case days < nearDays:
			score -= EarningsPenaltyNear
		default:
			score -= EarningsPenaltyInPeriod
		}
	}

	// Ex-dividend dates raise early assignment risk on short calls.
	if _, ok := daysInLife(ev.NextExDividend, s.AsOf, s.DaysToExpiration); ok {
		if s.OptionType == domain.OptionTypeCall {
			score -= DividendPenaltyCall
		} else {
			score -= DividendPenaltyPut
		}
	}

	return clamp(score)
}

// daysInLife returns whole days from asOf to the event when the event falls
// within [0, dte].
func daysInLife(event *time.Time, asOf time.Time, dte int) (int, bool) {
	if event == nil {
		return 0, false
	}
	days := int(dateOnly(*event).Sub(dateOnly(asOf)).Hours() / 24)
	if days < 0 || days > dte {
		return 0, false
	}
	return days, true
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
