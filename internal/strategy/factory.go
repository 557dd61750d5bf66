package strategy

import (
	"errors"
	"fmt"

	"options-income-lab/internal/domain"
)

// Factory errors
var (
	ErrUnknownStrategyType = errors.New("unknown strategy type")
	ErrInvalidStrikeWindow = errors.New("COVERED_CALL requires MinStrikeRatio <= MaxStrikeRatio")
	ErrNegativeParam       = errors.New("strategy parameters must not be negative")
)

// FromConfig creates a Strategy for the given type.
// Validates parameters used by that type.
func FromConfig(t domain.StrategyType, p Params) (Strategy, error) {
	switch t {
	case domain.StrategyCashSecuredPut:
		return NewCashSecuredPut(), nil
	case domain.StrategyCoveredCall:
		return fromCoveredCallParams(p)
	case domain.StrategyWheel:
		return fromWheelParams(p)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategyType, t)
	}
}

// fromCoveredCallParams creates CoveredCall from params.
func fromCoveredCallParams(p Params) (*CoveredCall, error) {
	if p.MinStrikeRatio < 0 || p.MaxStrikeRatio < 0 {
		return nil, ErrNegativeParam
	}
	if p.MaxStrikeRatio > 0 && p.MinStrikeRatio > p.MaxStrikeRatio {
		return nil, ErrInvalidStrikeWindow
	}
	return NewCoveredCall(p.MinStrikeRatio, p.MaxStrikeRatio), nil
}

// fromWheelParams creates Wheel from params.
func fromWheelParams(p Params) (*Wheel, error) {
	w := p.Wheel
	if w.AnnualReturn < 0 || w.Discount < 0 || w.Fundamental < 0 {
		return nil, ErrNegativeParam
	}
	return NewWheel(p.TargetEntryDiscount, w), nil
}
