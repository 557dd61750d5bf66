package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"options-income-lab/internal/domain"
)

func TestResolvePremium_FallbackOrder(t *testing.T) {
	tests := []struct {
		name       string
		bid, last  float64
		ask        float64
		wantPrice  float64
		wantSource domain.PriceSource
	}{
		{"bid preferred", 1.20, 1.35, 1.40, 1.20, domain.PriceSourceBid},
		{"last when no bid", 0, 1.35, 1.40, 1.35, domain.PriceSourceLast},
		{"half ask when no bid or last", 0, 0, 1.40, 0.70, domain.PriceSourceAskHalf},
		{"unpriceable", 0, 0, 0, 0, domain.PriceSourceNone},
		{"negative quotes ignored", -1, -1, -1, 0, domain.PriceSourceNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &domain.ContractRecord{Bid: tt.bid, LastPrice: tt.last, Ask: tt.ask}
			price, source := ResolvePremium(c)
			assert.InDelta(t, tt.wantPrice, price, 1e-12)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}

func TestDaysToExpiration(t *testing.T) {
	asOf := time.Date(2025, 1, 10, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, 30, DaysToExpiration(time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), asOf))
	assert.Equal(t, 0, DaysToExpiration(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), asOf))
	assert.Equal(t, 0, DaysToExpiration(time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC), asOf))
}

func TestClassifyMoneyness(t *testing.T) {
	assert.Equal(t, domain.MoneynessOTM, ClassifyMoneyness(domain.OptionTypePut, 95, 100))
	assert.Equal(t, domain.MoneynessITM, ClassifyMoneyness(domain.OptionTypePut, 105, 100))
	assert.Equal(t, domain.MoneynessITM, ClassifyMoneyness(domain.OptionTypeCall, 95, 100))
	assert.Equal(t, domain.MoneynessOTM, ClassifyMoneyness(domain.OptionTypeCall, 105, 100))
	assert.Equal(t, domain.MoneynessATM, ClassifyMoneyness(domain.OptionTypeCall, 100, 100))
}

func TestDistancePct_SignConvention(t *testing.T) {
	assert.InDelta(t, -2.5268, DistancePct(260, 266.74), 1e-3)
	assert.InDelta(t, -0.6523, DistancePct(265, 266.74), 1e-3)
	assert.Greater(t, DistancePct(280, 266.74), 0.0)
	assert.Zero(t, DistancePct(100, 0))
}

func TestReturns(t *testing.T) {
	assert.InDelta(t, 12.1667, AnnualizedReturn(1.0, 100, 30), 1e-3)
	assert.InDelta(t, 1.0, MonthlyReturn(1.0, 100, 30), 1e-9)
	assert.Zero(t, AnnualizedReturn(1.0, 0, 30))
	assert.Zero(t, AnnualizedReturn(1.0, 100, 0))
}
