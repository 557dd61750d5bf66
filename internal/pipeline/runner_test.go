package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"options-income-lab/internal/capital"
	"options-income-lab/internal/domain"
)

var (
	testAsOf   = time.Date(2025, 3, 3, 14, 0, 0, 0, time.UTC)
	testExpiry = time.Date(2025, 4, 4, 0, 0, 0, 0, time.UTC) // 31 DTE
)

// relaxedConfig disables every threshold except the days window so a test
// can isolate one stage.
func relaxedConfig(st domain.StrategyType) Config {
	cfg := DefaultConfig(st)
	cfg.Thresholds = Thresholds{MinDays: 1, MaxDays: 90}
	cfg.Capital = domain.CapitalConfig{
		AvailableCash:      1_000_000,
		MaxCashPerPosition: 1_000_000,
		FilterByCash:       true,
	}
	cfg.StrategyParams.TargetEntryDiscount = 0
	return cfg
}

func contract(ticker string, typ domain.OptionType, strike, bid, spot float64) domain.ContractRecord {
	return domain.ContractRecord{
		Ticker:            ticker,
		Strike:            strike,
		Expiration:        testExpiry,
		OptionType:        typ,
		Bid:               bid,
		Ask:               bid + 0.10,
		ImpliedVolatility: 0.30,
		OpenInterest:      500,
		Volume:            500,
		UnderlyingPrice:   spot,
	}
}

func mustRunner(t *testing.T, cfg Config) *Runner {
	t.Helper()
	r, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}

func mustRun(t *testing.T, r *Runner, in Input) *Result {
	t.Helper()
	res, err := r.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func strikes(opps []*domain.Opportunity) []float64 {
	out := make([]float64, 0, len(opps))
	for _, o := range opps {
		out = append(out, o.Contract.Strike)
	}
	return out
}

func TestRunner_NearTheMoneyUsesAbsoluteDistance(t *testing.T) {
	cfg := relaxedConfig(domain.StrategyCashSecuredPut)
	cfg.Thresholds.MinDistancePct = 2.0

	in := Input{
		AsOf: testAsOf,
		Contracts: []domain.ContractRecord{
			contract("AAPL", domain.OptionTypePut, 265, 4.0, 266.74),
			contract("AAPL", domain.OptionTypePut, 260, 2.5, 266.74),
			contract("AAPL", domain.OptionTypePut, 255, 1.5, 266.74),
		},
	}

	res := mustRun(t, mustRunner(t, cfg), in)

	got := map[float64]bool{}
	for _, o := range res.Opportunities {
		got[o.Contract.Strike] = true
	}
	if got[265] {
		t.Error("strike 265 (distance -0.65%) should be rejected")
	}
	if !got[260] || !got[255] {
		t.Errorf("strikes 260 and 255 should be accepted, got %v", strikes(res.Opportunities))
	}

	dist := res.Diagnostics.Stage(StageDistance)
	if dist.In != 3 || dist.Out != 2 {
		t.Errorf("distance stage in/out = %d/%d, want 3/2", dist.In, dist.Out)
	}
	if dist.Excluded[ReasonNearTheMoney] != 1 {
		t.Errorf("near_the_money exclusions = %d, want 1", dist.Excluded[ReasonNearTheMoney])
	}
}

func TestRunner_CapitalFilter(t *testing.T) {
	cfg := relaxedConfig(domain.StrategyCashSecuredPut)
	cfg.Capital = domain.CapitalConfig{
		AvailableCash:      50000,
		ReserveCash:        5000,
		MaxCashPerPosition: 10000,
		FilterByCash:       true,
	}

	in := Input{
		AsOf: testAsOf,
		Contracts: []domain.ContractRecord{
			contract("XYZ", domain.OptionTypePut, 150, 1.25, 160),
			contract("XYZ", domain.OptionTypePut, 90, 1.25, 100),
		},
	}

	res := mustRun(t, mustRunner(t, cfg), in)

	if len(res.Opportunities) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(res.Opportunities))
	}
	o := res.Opportunities[0]
	if o.Contract.Strike != 90 {
		t.Errorf("Strike = %v, want 90", o.Contract.Strike)
	}
	if o.MaxContracts != 1 {
		t.Errorf("MaxContracts = %d, want 1", o.MaxContracts)
	}
	if o.TotalCapitalRequired != 9000 {
		t.Errorf("TotalCapitalRequired = %v, want 9000", o.TotalCapitalRequired)
	}
	if o.TotalPremium != 125 {
		t.Errorf("TotalPremium = %v, want 125", o.TotalPremium)
	}
	if o.CapitalRequired != 9000 {
		t.Errorf("CapitalRequired = %v, want 9000", o.CapitalRequired)
	}

	d := res.Diagnostics
	if d.DeployableCash != 45000 || d.PositionBudget != 10000 {
		t.Errorf("deployable/budget = %v/%v, want 45000/10000", d.DeployableCash, d.PositionBudget)
	}
	if n := d.Stage(StageCapital).Excluded[ReasonUnaffordable]; n != 1 {
		t.Errorf("unaffordable exclusions = %d, want 1", n)
	}
}

func TestRunner_CapitalFilterDisabledKeepsZeroContracts(t *testing.T) {
	cfg := relaxedConfig(domain.StrategyCashSecuredPut)
	cfg.Capital = domain.CapitalConfig{
		AvailableCash:      50000,
		ReserveCash:        5000,
		MaxCashPerPosition: 10000,
	}

	in := Input{
		AsOf:      testAsOf,
		Contracts: []domain.ContractRecord{contract("XYZ", domain.OptionTypePut, 150, 1.25, 160)},
	}

	res := mustRun(t, mustRunner(t, cfg), in)

	if len(res.Opportunities) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(res.Opportunities))
	}
	if res.Opportunities[0].MaxContracts != 0 {
		t.Errorf("MaxContracts = %d, want 0", res.Opportunities[0].MaxContracts)
	}
}

func TestNewRunner_ConfigurationError(t *testing.T) {
	cfg := DefaultConfig(domain.StrategyCashSecuredPut)
	cfg.Capital.AvailableCash = 1000
	cfg.Capital.ReserveCash = 5000

	_, err := NewRunner(cfg)
	if err == nil {
		t.Fatal("expected error for reserve > available")
	}
	var cfgErr *capital.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *capital.ConfigurationError, got %T", err)
	}
	if !IsConfigurationError(err) {
		t.Error("IsConfigurationError should be true")
	}
}

func TestNewRunner_InvalidSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"max days below min", func(c *Config) { c.Thresholds.MaxDays = 5 }},
		{"zero weights", func(c *Config) { c.Weights.Technical, c.Weights.Fundamental, c.Weights.Sentiment, c.Weights.EventRisk = 0, 0, 0, 0 }},
		{"negative cap", func(c *Config) { c.MaxAdjustment = -1 }},
		{"negative position limit", func(c *Config) { c.Capital.MaxCashPerPosition = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(domain.StrategyCashSecuredPut)
			tt.mutate(&cfg)
			_, err := NewRunner(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !IsConfigurationError(err) {
				t.Errorf("IsConfigurationError(%v) = false", err)
			}
		})
	}
}

func TestNewRunner_UnknownStrategy(t *testing.T) {
	cfg := DefaultConfig(domain.StrategyCashSecuredPut)
	cfg.Strategy = "IRON_CONDOR"

	if _, err := NewRunner(cfg); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestRunner_UnpriceableExcluded(t *testing.T) {
	cfg := relaxedConfig(domain.StrategyCashSecuredPut)

	dead := contract("AAPL", domain.OptionTypePut, 250, 0, 266.74)
	dead.Ask = 0
	dead.LastPrice = 0
	badStrike := contract("AAPL", domain.OptionTypePut, 0, 2, 266.74)

	in := Input{
		AsOf: testAsOf,
		Contracts: []domain.ContractRecord{
			dead,
			badStrike,
			contract("AAPL", domain.OptionTypePut, 245, 2, 266.74),
		},
	}

	res := mustRun(t, mustRunner(t, cfg), in)

	if len(res.Opportunities) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(res.Opportunities))
	}
	coarse := res.Diagnostics.Stage(StageCoarse)
	if coarse.Excluded[ReasonUnpriceable] != 1 {
		t.Errorf("unpriceable = %d, want 1", coarse.Excluded[ReasonUnpriceable])
	}
	if coarse.Excluded[ReasonInvalidStrike] != 1 {
		t.Errorf("invalid_strike = %d, want 1", coarse.Excluded[ReasonInvalidStrike])
	}
}

func TestRunner_DuplicateContractsFirstWins(t *testing.T) {
	cfg := relaxedConfig(domain.StrategyCashSecuredPut)

	first := contract("AAPL", domain.OptionTypePut, 250, 2, 266.74)
	second := contract("AAPL", domain.OptionTypePut, 250, 3, 266.74)

	res := mustRun(t, mustRunner(t, cfg), Input{
		AsOf:      testAsOf,
		Contracts: []domain.ContractRecord{first, second},
	})

	if len(res.Opportunities) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(res.Opportunities))
	}
	if got := res.Opportunities[0].Greeks.Premium; got != 2 {
		t.Errorf("premium = %v, want the first quote's 2", got)
	}
	if n := res.Diagnostics.Stage(StageUniverse).Excluded[ReasonDuplicate]; n != 1 {
		t.Errorf("duplicate = %d, want 1", n)
	}
}

func TestRunner_PriceSourceProvenance(t *testing.T) {
	cfg := relaxedConfig(domain.StrategyCashSecuredPut)

	last := contract("AAPL", domain.OptionTypePut, 250, 0, 266.74)
	last.LastPrice = 2.2
	askHalf := contract("AAPL", domain.OptionTypePut, 245, 0, 266.74)
	askHalf.Ask = 3.0

	in := Input{
		AsOf: testAsOf,
		Contracts: []domain.ContractRecord{
			contract("AAPL", domain.OptionTypePut, 255, 2.5, 266.74),
			last,
			askHalf,
		},
	}

	res := mustRun(t, mustRunner(t, cfg), in)

	d := res.Diagnostics
	if d.PriceSources[domain.PriceSourceBid] != 1 ||
		d.PriceSources[domain.PriceSourceLast] != 1 ||
		d.PriceSources[domain.PriceSourceAskHalf] != 1 {
		t.Errorf("price sources = %v", d.PriceSources)
	}
	if d.StaleQuotes() != 2 {
		t.Errorf("StaleQuotes = %d, want 2", d.StaleQuotes())
	}
	for _, o := range res.Opportunities {
		if o.Contract.Strike == 245 {
			if o.Greeks.PriceSource != domain.PriceSourceAskHalf || o.Greeks.Premium != 1.5 {
				t.Errorf("ask/2 contract priced %v from %s", o.Greeks.Premium, o.Greeks.PriceSource)
			}
		}
	}
}

func TestRunner_StageOrderNeverReadmits(t *testing.T) {
	cfg := DefaultConfig(domain.StrategyCashSecuredPut)
	cfg.QualityOnly = true

	in := Input{
		AsOf: testAsOf,
		Contracts: []domain.ContractRecord{
			contract("AAPL", domain.OptionTypePut, 255, 2.5, 266.74),
			contract("AAPL", domain.OptionTypePut, 265, 4.0, 266.74),
			contract("AAPL", domain.OptionTypeCall, 280, 2.0, 266.74),
			contract("ZZZZ", domain.OptionTypePut, 40, 1.0, 42),
			contract("MSFT", domain.OptionTypePut, 100, 0.1, 110),
			contract("MSFT", domain.OptionTypePut, 250, 3.0, 260),
		},
	}

	res := mustRun(t, mustRunner(t, cfg), in)
	stages := res.Diagnostics.Stages

	if stages[0].In != len(in.Contracts) {
		t.Errorf("universe in = %d, want %d", stages[0].In, len(in.Contracts))
	}
	for i := 1; i < len(stages); i++ {
		if stages[i].In != stages[i-1].Out {
			t.Errorf("stage %s in = %d, previous out = %d", stages[i].Stage, stages[i].In, stages[i-1].Out)
		}
	}
	for _, sc := range stages {
		excluded := 0
		for _, n := range sc.Excluded {
			excluded += n
		}
		if sc.In-sc.Out != excluded {
			t.Errorf("stage %s: in-out = %d, excluded = %d", sc.Stage, sc.In-sc.Out, excluded)
		}
	}

	u := res.Diagnostics.Stage(StageUniverse)
	if u.Excluded[ReasonOptionType] != 1 || u.Excluded[ReasonNotQuality] != 1 {
		t.Errorf("universe exclusions = %v", u.Excluded)
	}
	if got := stages[len(stages)-1].Out; got != len(res.Opportunities) {
		t.Errorf("rank out = %d, opportunities = %d", got, len(res.Opportunities))
	}
}

func TestRunner_RankingAndTieBreak(t *testing.T) {
	cfg := relaxedConfig(domain.StrategyCashSecuredPut)

	in := Input{
		AsOf: testAsOf,
		Contracts: []domain.ContractRecord{
			contract("MSFT", domain.OptionTypePut, 100, 2.0, 110),
			contract("AAPL", domain.OptionTypePut, 100, 2.0, 110),
			contract("NVDA", domain.OptionTypePut, 100, 3.0, 110),
		},
	}

	res := mustRun(t, mustRunner(t, cfg), in)

	if len(res.Opportunities) != 3 {
		t.Fatalf("expected 3 opportunities, got %d", len(res.Opportunities))
	}
	want := []string{"NVDA", "AAPL", "MSFT"}
	for i, o := range res.Opportunities {
		if o.Contract.Ticker != want[i] {
			t.Errorf("rank %d: ticker = %s, want %s", i+1, o.Contract.Ticker, want[i])
		}
		if o.Rank != i+1 {
			t.Errorf("rank %d: Rank = %d", i+1, o.Rank)
		}
	}
}

func TestRunner_RanksByRiskRewardNotAnnualReturn(t *testing.T) {
	cfg := relaxedConfig(domain.StrategyCashSecuredPut)

	// Richer but riskier: higher annual return, low probability OTM.
	rich := contract("AAPL", domain.OptionTypePut, 99, 3.2, 100)
	// Cheaper but safer: lower annual return, high probability OTM.
	safe := contract("MSFT", domain.OptionTypePut, 95, 2.0, 100)
	safe.ImpliedVolatility = 0.15

	res := mustRun(t, mustRunner(t, cfg), Input{
		AsOf:      testAsOf,
		Contracts: []domain.ContractRecord{rich, safe},
	})

	if len(res.Opportunities) != 2 {
		t.Fatalf("expected 2 opportunities, got %d", len(res.Opportunities))
	}
	first, second := res.Opportunities[0], res.Opportunities[1]
	if first.Contract.Ticker != "MSFT" {
		t.Fatalf("rank 1 = %s, want MSFT", first.Contract.Ticker)
	}
	if first.AnnualReturn >= second.AnnualReturn {
		t.Errorf("annual return order should disagree: %v >= %v", first.AnnualReturn, second.AnnualReturn)
	}
	if first.RiskRewardScore <= second.RiskRewardScore {
		t.Errorf("risk/reward not descending: %v <= %v", first.RiskRewardScore, second.RiskRewardScore)
	}
}

func TestRunner_TopNTruncation(t *testing.T) {
	cfg := relaxedConfig(domain.StrategyCashSecuredPut)
	cfg.Thresholds.TopN = 2

	in := Input{
		AsOf: testAsOf,
		Contracts: []domain.ContractRecord{
			contract("AAPL", domain.OptionTypePut, 100, 2.0, 110),
			contract("AAPL", domain.OptionTypePut, 95, 1.5, 110),
			contract("AAPL", domain.OptionTypePut, 90, 1.0, 110),
		},
	}

	res := mustRun(t, mustRunner(t, cfg), in)

	if len(res.Opportunities) != 2 {
		t.Fatalf("expected 2 opportunities, got %d", len(res.Opportunities))
	}
	rank := res.Diagnostics.Stage(StageRank)
	if rank.Excluded[ReasonTruncated] != 1 {
		t.Errorf("truncated = %d, want 1", rank.Excluded[ReasonTruncated])
	}
}

func TestRunner_DeterministicAcrossWorkers(t *testing.T) {
	var contracts []domain.ContractRecord
	for _, ticker := range []string{"AAPL", "AMD", "MSFT", "NVDA", "QQQ", "SPY"} {
		for _, strike := range []float64{90, 95, 100} {
			contracts = append(contracts, contract(ticker, domain.OptionTypePut, strike, strike/50, 105))
		}
	}
	in := Input{AsOf: testAsOf, Contracts: contracts}

	var results []*Result
	for _, workers := range []int{1, 8, 1} {
		cfg := relaxedConfig(domain.StrategyCashSecuredPut)
		cfg.Workers = workers
		results = append(results, mustRun(t, mustRunner(t, cfg), in))
	}

	for i := 1; i < len(results); i++ {
		if !reflect.DeepEqual(results[0].Opportunities, results[i].Opportunities) {
			t.Errorf("run %d opportunities differ from run 0", i)
		}
		if !reflect.DeepEqual(results[0].Diagnostics, results[i].Diagnostics) {
			t.Errorf("run %d diagnostics differ from run 0", i)
		}
	}
}

func TestRunner_MissingSnapshotScoresNeutral(t *testing.T) {
	cfg := relaxedConfig(domain.StrategyCashSecuredPut)

	in := Input{
		AsOf:      testAsOf,
		Contracts: []domain.ContractRecord{contract("AAPL", domain.OptionTypePut, 250, 2.0, 266.74)},
	}

	res := mustRun(t, mustRunner(t, cfg), in)

	if len(res.Opportunities) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(res.Opportunities))
	}
	o := res.Opportunities[0]
	if o.Scores.Technical != 50 || o.Scores.Fundamental != 50 || o.Scores.Sentiment != 50 {
		t.Errorf("scores = %+v, want neutral", o.Scores)
	}
	if o.Scores.Confidence != domain.ConfidenceLow {
		t.Errorf("Confidence = %s, want low", o.Scores.Confidence)
	}
	if !reflect.DeepEqual(res.Diagnostics.MissingSnapshots, []string{"AAPL"}) {
		t.Errorf("MissingSnapshots = %v", res.Diagnostics.MissingSnapshots)
	}
	if o.EnhancedProbability < 0 || o.EnhancedProbability > 100 {
		t.Errorf("EnhancedProbability = %v out of bounds", o.EnhancedProbability)
	}
}

func TestRunner_SnapshotSpotOverridesChainSpot(t *testing.T) {
	cfg := relaxedConfig(domain.StrategyCashSecuredPut)

	in := Input{
		AsOf:      testAsOf,
		Contracts: []domain.ContractRecord{contract("AAPL", domain.OptionTypePut, 250, 2.0, 0)},
		Snapshots: map[string]*domain.StockSnapshot{
			"AAPL": {Ticker: "AAPL", CurrentPrice: 266.74},
		},
	}

	res := mustRun(t, mustRunner(t, cfg), in)

	if len(res.Opportunities) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(res.Opportunities))
	}
	if res.Opportunities[0].CurrentPrice != 266.74 {
		t.Errorf("CurrentPrice = %v, want 266.74", res.Opportunities[0].CurrentPrice)
	}
}

func TestRunner_NoSpotExcluded(t *testing.T) {
	cfg := relaxedConfig(domain.StrategyCashSecuredPut)

	in := Input{
		AsOf:      testAsOf,
		Contracts: []domain.ContractRecord{contract("AAPL", domain.OptionTypePut, 250, 2.0, 0)},
	}

	res := mustRun(t, mustRunner(t, cfg), in)

	if len(res.Opportunities) != 0 {
		t.Fatalf("expected no opportunities, got %d", len(res.Opportunities))
	}
	if n := res.Diagnostics.Stage(StageEnrich).Excluded[ReasonNoSpot]; n != 1 {
		t.Errorf("no_spot = %d, want 1", n)
	}
}

func TestRunner_CoveredCallStrikeWindow(t *testing.T) {
	cfg := relaxedConfig(domain.StrategyCoveredCall)

	in := Input{
		AsOf: testAsOf,
		Contracts: []domain.ContractRecord{
			contract("AAPL", domain.OptionTypeCall, 90, 12, 100),   // below 0.95x
			contract("AAPL", domain.OptionTypeCall, 105, 2, 100),   // inside
			contract("AAPL", domain.OptionTypeCall, 160, 0.6, 100), // above 1.5x
		},
	}

	res := mustRun(t, mustRunner(t, cfg), in)

	if got := strikes(res.Opportunities); !reflect.DeepEqual(got, []float64{105}) {
		t.Errorf("strikes = %v, want [105]", got)
	}
	o := res.Opportunities[0]
	if o.CapitalRequired != 10000 {
		t.Errorf("CapitalRequired = %v, want 10000 (spot x 100)", o.CapitalRequired)
	}
	if o.DownsideProtectionPct != 2 {
		t.Errorf("DownsideProtectionPct = %v, want 2", o.DownsideProtectionPct)
	}
	if n := res.Diagnostics.Stage(StageCoarse).Excluded[ReasonStrikeWindow]; n != 2 {
		t.Errorf("strike_window = %d, want 2", n)
	}
}

func TestRunner_WheelEntryDiscount(t *testing.T) {
	cfg := relaxedConfig(domain.StrategyWheel)
	cfg.StrategyParams.TargetEntryDiscount = 5

	in := Input{
		AsOf: testAsOf,
		Contracts: []domain.ContractRecord{
			contract("AAPL", domain.OptionTypePut, 98, 1.0, 100), // net 97, discount 3%
			contract("AAPL", domain.OptionTypePut, 94, 0.8, 100), // net 93.2, discount 6.8%
		},
	}

	res := mustRun(t, mustRunner(t, cfg), in)

	if got := strikes(res.Opportunities); !reflect.DeepEqual(got, []float64{94}) {
		t.Errorf("strikes = %v, want [94]", got)
	}
	if n := res.Diagnostics.Stage(StageDerive).Excluded[ReasonEntryDiscount]; n != 1 {
		t.Errorf("entry_discount = %d, want 1", n)
	}
	if res.Opportunities[0].WheelScore <= 0 {
		t.Errorf("WheelScore = %v, want > 0", res.Opportunities[0].WheelScore)
	}
}

func TestRunner_ContextCancelled(t *testing.T) {
	cfg := relaxedConfig(domain.StrategyCashSecuredPut)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := Input{
		AsOf:      testAsOf,
		Contracts: []domain.ContractRecord{contract("AAPL", domain.OptionTypePut, 250, 2.0, 266.74)},
	}

	if _, err := mustRunner(t, cfg).Run(ctx, in); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunner_ConfigIsCopied(t *testing.T) {
	cfg := DefaultConfig(domain.StrategyCashSecuredPut)
	r := mustRunner(t, cfg)

	cfg.QualityTickers[0] = "CHANGED"
	for _, tk := range r.Config().QualityTickers {
		if tk == "CHANGED" {
			t.Fatal("runner observed caller mutation of QualityTickers")
		}
	}
}
