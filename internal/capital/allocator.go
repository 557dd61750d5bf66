// Package capital sizes cash-secured positions against a cash budget.
package capital

import (
	"math"

	"github.com/shopspring/decimal"

	"options-income-lab/internal/domain"
)

var multiplier = decimal.NewFromInt(domain.ContractMultiplier)

// Validate rejects negative, non-finite or inconsistent capital settings.
func Validate(cfg domain.CapitalConfig) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"available_cash", cfg.AvailableCash},
		{"reserve_cash", cfg.ReserveCash},
		{"max_cash_per_position", cfg.MaxCashPerPosition},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ConfigurationError{Field: f.name, Reason: "must be a finite number"}
		}
		if f.value < 0 {
			return &ConfigurationError{Field: f.name, Reason: "must not be negative"}
		}
	}
	if cfg.MaxPositions < 0 {
		return &ConfigurationError{Field: "max_positions", Reason: "must not be negative"}
	}
	if cfg.ReserveCash > cfg.AvailableCash {
		return &ConfigurationError{Field: "reserve_cash", Reason: "exceeds available_cash"}
	}
	return nil
}

// Allocation is the sizing outcome for one opportunity.
type Allocation struct {
	CashPerContract      float64
	MaxContracts         int
	TotalCapitalRequired float64
	TotalPremium         float64
}

// Affordable reports whether at least one contract fits the budget.
func (a Allocation) Affordable() bool {
	return a.MaxContracts >= 1
}

// Allocator computes affordable contract counts. Safe for concurrent use.
type Allocator struct {
	cfg        domain.CapitalConfig
	deployable decimal.Decimal
	budget     decimal.Decimal
}

// NewAllocator validates cfg and creates an allocator.
func NewAllocator(cfg domain.CapitalConfig) (*Allocator, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	deployable, _ := cfg.DeployableCash()
	d := decimal.NewFromFloat(deployable)
	budget := decimal.Min(decimal.NewFromFloat(cfg.MaxCashPerPosition), d)

	return &Allocator{cfg: cfg, deployable: d, budget: budget}, nil
}

// Config returns the capital configuration.
func (a *Allocator) Config() domain.CapitalConfig {
	return a.cfg
}

// Deployable returns max(0, available - reserve).
func (a *Allocator) Deployable() float64 {
	return a.deployable.InexactFloat64()
}

// Budget returns min(max_cash_per_position, deployable).
func (a *Allocator) Budget() float64 {
	return a.budget.InexactFloat64()
}

// Allocate sizes a position collateralized at pricePerShare (the strike for
// a cash-secured put) receiving premium per share.
// A non-positive price yields a zero allocation.
func (a *Allocator) Allocate(pricePerShare, premium float64) Allocation {
	if pricePerShare <= 0 || math.IsNaN(pricePerShare) {
		return Allocation{}
	}

	perContract := decimal.NewFromFloat(pricePerShare).Mul(multiplier)
	contracts := a.budget.Div(perContract).Floor()
	if contracts.IsNegative() {
		contracts = decimal.Zero
	}

	return Allocation{
		CashPerContract:      perContract.InexactFloat64(),
		MaxContracts:         int(contracts.IntPart()),
		TotalCapitalRequired: contracts.Mul(perContract).InexactFloat64(),
		TotalPremium:         contracts.Mul(decimal.NewFromFloat(premium)).Mul(multiplier).InexactFloat64(),
	}
}
