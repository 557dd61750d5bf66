package scoring

import (
	"github.com/montanaflynn/stats"

	"options-income-lab/internal/domain"
)

// Moving-average and range windows, in trading days.
const (
	ShortWindow      = 20
	MediumWindow     = 50
	LongWindow       = 100
	AvgVolumeWindow  = 63
	FiftyTwoWeekBars = 252
)

// Indicators are technical values derived once per underlying.
// Nil fields could not be computed from the available history.
type Indicators struct {
	SMAShort   *float64
	SMAMedium  *float64
	SMALong    *float64
	High52Week *float64
	Low52Week  *float64
	LastVolume *float64
	AvgVolume  *float64
	LastChange *float64 // fractional change of the last close vs the prior close
}

// Profile pairs a snapshot with its derived indicators.
// A Profile is read-only after construction and shared across contracts.
type Profile struct {
	Snapshot   *domain.StockSnapshot
	Current    float64
	Indicators Indicators
}

// NewProfile derives indicators for a snapshot. Returns nil for a nil snapshot.
func NewProfile(snap *domain.StockSnapshot) *Profile {
	if snap == nil {
		return nil
	}

	closes := make(stats.Float64Data, 0, len(snap.History))
	volumes := make(stats.Float64Data, 0, len(snap.History))
	for _, bar := range snap.History {
		closes = append(closes, bar.Close)
		volumes = append(volumes, bar.Volume)
	}

	p := &Profile{Snapshot: snap, Current: snap.CurrentPrice}
	if p.Current <= 0 && len(closes) > 0 {
		p.Current = closes[len(closes)-1]
	}

	ind := &p.Indicators
	ind.SMAShort = trailingMean(closes, ShortWindow)
	ind.SMAMedium = trailingMean(closes, MediumWindow)
	ind.SMALong = trailingMean(closes, LongWindow)

	ind.High52Week = snap.High52Week
	ind.Low52Week = snap.Low52Week
	window := tail(closes, FiftyTwoWeekBars)
	if ind.High52Week == nil && len(window) > 0 {
		if v, err := stats.Max(window); err == nil {
			ind.High52Week = &v
		}
	}
	if ind.Low52Week == nil && len(window) > 0 {
		if v, err := stats.Min(window); err == nil {
			ind.Low52Week = &v
		}
	}

	if n := len(volumes); n > 0 && volumes[n-1] > 0 {
		last := volumes[n-1]
		ind.LastVolume = &last
		if avg, err := stats.Mean(tail(volumes, AvgVolumeWindow)); err == nil && avg > 0 {
			ind.AvgVolume = &avg
		}
	}

	if n := len(closes); n >= 2 && closes[n-2] > 0 {
		change := (closes[n-1] - closes[n-2]) / closes[n-2]
		ind.LastChange = &change
	}

	return p
}

// trailingMean returns the mean of the last n values, or nil when fewer than n exist.
func trailingMean(data stats.Float64Data, n int) *float64 {
	if len(data) < n {
		return nil
	}
	m, err := stats.Mean(tail(data, n))
	if err != nil {
		return nil
	}
	return &m
}

func tail(data stats.Float64Data, n int) stats.Float64Data {
	if len(data) <= n {
		return data
	}
	return data[len(data)-n:]
}
