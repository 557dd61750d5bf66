package marketdata

import (
	"time"
	_ "time/tzdata"
)

// Session is the US equity trading session at an instant.
type Session string

const (
	SessionOpen       Session = "OPEN"
	SessionPreMarket  Session = "PRE_MARKET"
	SessionAfterHours Session = "AFTER_HOURS"
	SessionClosed     Session = "CLOSED"
)

// String returns the string representation of Session.
func (s Session) String() string {
	return string(s)
}

// IsOpen reports whether quotes are live.
func (s Session) IsOpen() bool {
	return s == SessionOpen
}

var eastern = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// SessionAt classifies t in US Eastern time: regular hours 9:30-16:00,
// pre-market from 4:00, after hours until 20:00, closed on weekends.
// Exchange holidays are not modeled.
func SessionAt(t time.Time) Session {
	et := t.In(eastern)
	if wd := et.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return SessionClosed
	}

	minutes := et.Hour()*60 + et.Minute()
	switch {
	case minutes >= 9*60+30 && minutes <= 16*60:
		return SessionOpen
	case minutes >= 4*60 && minutes < 9*60+30:
		return SessionPreMarket
	case minutes > 16*60 && minutes <= 20*60:
		return SessionAfterHours
	}
	return SessionClosed
}
