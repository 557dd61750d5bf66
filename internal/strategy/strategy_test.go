package strategy

import (
	"errors"
	"math"
	"testing"
	"time"

	"options-income-lab/internal/domain"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func opportunity(typ domain.OptionType, strike, premium, current float64, dte int) *domain.Opportunity {
	return &domain.Opportunity{
		Contract: domain.ContractRecord{
			Ticker:     "MSFT",
			Strike:     strike,
			Expiration: time.Date(2025, 4, 17, 0, 0, 0, 0, time.UTC),
			OptionType: typ,
		},
		Greeks:              domain.GreeksResult{Premium: premium, DaysToExpiration: dte},
		Scores:              domain.FactorScores{Fundamental: 80},
		CurrentPrice:        current,
		EnhancedProbability: 80,
	}
}

func TestCashSecuredPut_Derive(t *testing.T) {
	s := NewCashSecuredPut()
	o := opportunity(domain.OptionTypePut, 95, 2.0, 100, 30)

	s.Derive(o)

	if !approx(o.CapitalRequired, 9500) {
		t.Errorf("CapitalRequired = %v, want 9500", o.CapitalRequired)
	}
	if !approx(o.NetPurchasePrice, 93) {
		t.Errorf("NetPurchasePrice = %v, want 93", o.NetPurchasePrice)
	}
	if !approx(o.DiscountPct, 7) {
		t.Errorf("DiscountPct = %v, want 7", o.DiscountPct)
	}
	if !approx(o.CushionPct, 5) {
		t.Errorf("CushionPct = %v, want 5", o.CushionPct)
	}
	if !approx(o.Breakeven, 93) {
		t.Errorf("Breakeven = %v, want 93", o.Breakeven)
	}
	// 2/95 * 365/30 * 100
	wantAnnual := 2.0 / 95 * 365 / 30 * 100
	if !approx(o.AnnualReturn, wantAnnual) {
		t.Errorf("AnnualReturn = %v, want %v", o.AnnualReturn, wantAnnual)
	}
	if !approx(o.MonthlyReturn, 2.0/95*100) {
		t.Errorf("MonthlyReturn = %v, want %v", o.MonthlyReturn, 2.0/95*100)
	}
	if !approx(o.RiskRewardScore, wantAnnual*0.8) {
		t.Errorf("RiskRewardScore = %v, want %v", o.RiskRewardScore, wantAnnual*0.8)
	}
	if s.PrimaryMetric(o) != o.RiskRewardScore {
		t.Error("CSP should rank by risk/reward score")
	}
}

func TestCoveredCall_DeriveAndAdmit(t *testing.T) {
	s := NewCoveredCall(0.95, 1.5)
	o := opportunity(domain.OptionTypeCall, 110, 2.5, 100, 30)

	s.Derive(o)

	if !approx(o.CapitalRequired, 10000) {
		t.Errorf("CapitalRequired = %v, want 10000", o.CapitalRequired)
	}
	if !approx(o.DownsideProtectionPct, 2.5) {
		t.Errorf("DownsideProtectionPct = %v, want 2.5", o.DownsideProtectionPct)
	}
	if !approx(o.MaxProfitPct, 12.5) {
		t.Errorf("MaxProfitPct = %v, want 12.5", o.MaxProfitPct)
	}
	if !approx(o.Breakeven, 97.5) {
		t.Errorf("Breakeven = %v, want 97.5", o.Breakeven)
	}
	if !approx(o.AnnualReturn, 2.5/100*365/30*100) {
		t.Errorf("AnnualReturn = %v", o.AnnualReturn)
	}
	if s.PrimaryMetric(o) != o.RiskRewardScore {
		t.Error("covered call should rank by risk/reward score")
	}

	cases := []struct {
		strike float64
		want   bool
	}{
		{94.99, false},
		{95, true},
		{150, true},
		{150.01, false},
	}
	for _, tc := range cases {
		c := &domain.ContractRecord{Strike: tc.strike}
		if got := s.Admit(c, 100); got != tc.want {
			t.Errorf("Admit(strike=%v) = %v, want %v", tc.strike, got, tc.want)
		}
	}

	open := NewCoveredCall(0, 0)
	if !open.Admit(&domain.ContractRecord{Strike: 1000}, 100) {
		t.Error("zero ratios should disable the strike window")
	}
}

func TestWheel_ScoreAndQualify(t *testing.T) {
	s := NewWheel(5, WheelWeights{AnnualReturn: 0.4, Discount: 0.3, Fundamental: 0.3})

	o := opportunity(domain.OptionTypePut, 95, 2.0, 100, 30)
	s.Derive(o)

	want := 0.4*o.AnnualReturn + 0.3*7 + 0.3*80
	if !approx(o.WheelScore, want) {
		t.Errorf("WheelScore = %v, want %v", o.WheelScore, want)
	}
	if !s.Qualify(o) {
		t.Error("7% discount should qualify against a 5% target")
	}
	if s.PrimaryMetric(o) != o.WheelScore {
		t.Error("wheel should rank by wheel score")
	}

	shallow := opportunity(domain.OptionTypePut, 99, 1.0, 100, 30)
	s.Derive(shallow)
	if s.Qualify(shallow) {
		t.Errorf("discount %v should not qualify", shallow.DiscountPct)
	}
}

func TestFromConfig(t *testing.T) {
	for _, st := range domain.AllStrategies() {
		s, err := FromConfig(st, DefaultParams())
		if err != nil {
			t.Fatalf("FromConfig(%s) failed: %v", st, err)
		}
		if s.ID() != st {
			t.Errorf("ID() = %s, want %s", s.ID(), st)
		}
		if s.OptionType() != st.OptionType() {
			t.Errorf("%s OptionType() = %s, want %s", st, s.OptionType(), st.OptionType())
		}
	}

	cc, err := FromConfig(domain.StrategyCoveredCall, DefaultParams())
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	if c, ok := cc.(*CoveredCall); !ok || c.MinStrikeRatio != 0.95 || c.MaxStrikeRatio != 1.5 {
		t.Errorf("unexpected covered call %#v", cc)
	}
}

func TestFromConfig_Errors(t *testing.T) {
	_, err := FromConfig("IRON_CONDOR", DefaultParams())
	if !errors.Is(err, ErrUnknownStrategyType) {
		t.Errorf("expected ErrUnknownStrategyType, got %v", err)
	}

	p := DefaultParams()
	p.MinStrikeRatio, p.MaxStrikeRatio = 1.2, 1.1
	_, err = FromConfig(domain.StrategyCoveredCall, p)
	if !errors.Is(err, ErrInvalidStrikeWindow) {
		t.Errorf("expected ErrInvalidStrikeWindow, got %v", err)
	}

	p = DefaultParams()
	p.Wheel.Discount = -1
	_, err = FromConfig(domain.StrategyWheel, p)
	if !errors.Is(err, ErrNegativeParam) {
		t.Errorf("expected ErrNegativeParam, got %v", err)
	}
}
