package probability

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustment_LinearMap(t *testing.T) {
	a, err := NewAdjuster(DefaultMaxAdjustment)
	require.NoError(t, err)

	assert.Equal(t, -15.0, a.Adjustment(0))
	assert.Equal(t, 0.0, a.Adjustment(50))
	assert.Equal(t, 15.0, a.Adjustment(100))
	assert.InDelta(t, 6.0, a.Adjustment(70), 1e-12)

	// Symmetric around 50.
	for _, d := range []float64{1, 12.5, 33, 50} {
		assert.InDelta(t, -a.Adjustment(50-d), a.Adjustment(50+d), 1e-12)
	}
}

func TestAdjustment_ClampsCompositeOutsideRange(t *testing.T) {
	a, err := NewAdjuster(DefaultMaxAdjustment)
	require.NoError(t, err)

	assert.Equal(t, 15.0, a.Adjustment(250))
	assert.Equal(t, -15.0, a.Adjustment(-80))
}

func TestEnhance_StaysInBounds(t *testing.T) {
	a, err := NewAdjuster(DefaultMaxAdjustment)
	require.NoError(t, err)

	theoreticals := []float64{0, 0.5, 10, 50, 90, 99.5, 100}
	composites := []float64{-10, 0, 25, 50, 75, 100, 500}

	for _, th := range theoreticals {
		for _, c := range composites {
			got, adj := a.Enhance(th, c)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
			assert.LessOrEqual(t, math.Abs(adj), DefaultMaxAdjustment)
		}
	}

	got, _ := a.Enhance(95, 100)
	assert.Equal(t, 100.0, got)
	got, _ = a.Enhance(5, 0)
	assert.Equal(t, 0.0, got)
	got, adj := a.Enhance(70, 80)
	assert.InDelta(t, 79.0, got, 1e-12)
	assert.InDelta(t, 9.0, adj, 1e-12)
}

func TestNewAdjuster_RejectsInvalidCap(t *testing.T) {
	_, err := NewAdjuster(-1)
	assert.ErrorIs(t, err, ErrInvalidCap)
	_, err = NewAdjuster(math.NaN())
	assert.ErrorIs(t, err, ErrInvalidCap)

	a, err := NewAdjuster(0)
	require.NoError(t, err)
	got, adj := a.Enhance(42, 100)
	assert.Equal(t, 42.0, got)
	assert.Zero(t, adj)
}

func TestEnhance_NaNIsNeutral(t *testing.T) {
	a, err := NewAdjuster(DefaultMaxAdjustment)
	require.NoError(t, err)

	got, _ := a.Enhance(math.NaN(), 50)
	assert.Equal(t, 50.0, got)
	assert.Equal(t, 0.0, a.Adjustment(math.NaN()))
}
