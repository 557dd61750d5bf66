// Package probability blends a theoretical probability with a factor
// composite. The adjustment is a bounded heuristic correction, not a
// statistical re-estimate.
package probability

import (
	"errors"
	"fmt"
	"math"
)

// DefaultMaxAdjustment is the cap in percentage points.
const DefaultMaxAdjustment = 15.0

// ErrInvalidCap is returned for a negative or non-finite cap.
var ErrInvalidCap = errors.New("invalid adjustment cap")

// Adjuster maps a 0-100 composite onto [-cap, +cap] percentage points.
type Adjuster struct {
	maxAdj float64
}

// NewAdjuster creates an adjuster with the given cap.
func NewAdjuster(maxAdjustment float64) (*Adjuster, error) {
	if maxAdjustment < 0 || math.IsNaN(maxAdjustment) || math.IsInf(maxAdjustment, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCap, maxAdjustment)
	}
	return &Adjuster{maxAdj: maxAdjustment}, nil
}

// Cap returns the maximum absolute adjustment.
func (a *Adjuster) Cap() float64 {
	return a.maxAdj
}

// Adjustment returns (composite - 50) / 50 * cap. Composite is clamped to
// [0,100] first so the result never exceeds the cap.
func (a *Adjuster) Adjustment(composite float64) float64 {
	c := clamp(composite)
	return (c - 50) / 50 * a.maxAdj
}

// Enhance returns clamp(theoretical + Adjustment(composite), 0, 100) and the
// adjustment applied.
func (a *Adjuster) Enhance(theoretical, composite float64) (float64, float64) {
	adj := a.Adjustment(composite)
	return clamp(theoretical + adj), adj
}

// clamp bounds a percentage to [0,100]. NaN maps to the neutral 50,
// matching the pricing engine.
func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 50
	}
	return math.Max(0, math.Min(100, v))
}
