// Package pricing implements Black-Scholes valuation, Greeks, and the
// quote-resolution rules applied before any return calculation.
package pricing

import (
	"math"

	"options-income-lab/internal/domain"
)

// DaysPerYear converts calendar days to the time-to-expiry unit.
const DaysPerYear = 365.0

// Inputs holds the Black-Scholes parameters for one contract.
type Inputs struct {
	Spot       float64 // underlying price S
	Strike     float64 // strike K
	Years      float64 // time to expiry T
	Volatility float64 // annualized sigma, decimal
	Rate       float64 // continuously compounded risk-free rate r
	Type       domain.OptionType
}

// Result holds theoretical value, Greeks and probability of expiring OTM.
type Result struct {
	Price          float64
	Delta          float64
	Gamma          float64
	Theta          float64 // per calendar day
	ProbabilityOTM float64 // percent [0,100]
	Degenerate     bool    // intrinsic-value fallback was used
}

// BlackScholes prices a European option.
// For T <= 0 or sigma <= 0 the result is the deterministic intrinsic value,
// with probability OTM resolved from moneyness at spot.
func BlackScholes(in Inputs) (Result, error) {
	if in.Spot <= 0 {
		return Result{}, ErrInvalidSpot
	}
	if in.Strike <= 0 {
		return Result{}, ErrInvalidStrike
	}
	if !in.Type.IsValid() {
		return Result{}, ErrInvalidOptionType
	}

	sqrtT := math.Sqrt(math.Max(in.Years, 0))
	volSqrtT := in.Volatility * sqrtT
	if in.Years <= 0 || in.Volatility <= 0 || volSqrtT == 0 || math.IsNaN(volSqrtT) {
		return intrinsic(in), nil
	}

	S, K, T, r, sigma := in.Spot, in.Strike, in.Years, in.Rate, in.Volatility

	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / volSqrtT
	d2 := d1 - volSqrtT

	nd1 := normCDF(d1)
	nd2 := normCDF(d2)
	pd1 := normPDF(d1)
	discK := K * math.Exp(-r*T)

	res := Result{
		Gamma: pd1 / (S * volSqrtT),
	}

	decay := -(S * pd1 * sigma) / (2 * sqrtT)
	if in.Type == domain.OptionTypeCall {
		res.Price = S*nd1 - discK*nd2
		res.Delta = nd1
		res.Theta = (decay - r*discK*nd2) / DaysPerYear
		res.ProbabilityOTM = (1 - nd2) * 100
	} else {
		res.Price = discK*normCDF(-d2) - S*normCDF(-d1)
		res.Delta = nd1 - 1
		res.Theta = (decay + r*discK*normCDF(-d2)) / DaysPerYear
		res.ProbabilityOTM = nd2 * 100
	}
	res.ProbabilityOTM = clampPct(res.ProbabilityOTM)

	return res, nil
}

// intrinsic returns the no-diffusion valuation. A contract struck exactly
// at spot expires worthless and counts as out of the money.
func intrinsic(in Inputs) Result {
	res := Result{Degenerate: true}
	if in.Type == domain.OptionTypeCall {
		res.Price = math.Max(in.Spot-in.Strike, 0)
		if in.Spot > in.Strike {
			res.Delta = 1
		} else {
			res.ProbabilityOTM = 100
		}
		return res
	}

	res.Price = math.Max(in.Strike-in.Spot, 0)
	if in.Spot < in.Strike {
		res.Delta = -1
	} else {
		res.ProbabilityOTM = 100
	}
	return res
}

func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

// clampPct bounds a percentage to [0,100]. NaN maps to the neutral 50,
// matching probability.Adjuster.
func clampPct(v float64) float64 {
	if math.IsNaN(v) {
		return 50
	}
	return math.Max(0, math.Min(100, v))
}
