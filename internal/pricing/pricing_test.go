package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeDropsOutliersBeforeStatistics(t *testing.T) {
	a := NewAnalyzer()

	res := a.Analyze([]float64{100, 100, 100, 100, 500}, 100)

	// 500 must be trimmed before any statistics are computed.
	assert.Equal(t, 4, res.CleanedSize)
	assert.Equal(t, 100.0, res.CleanedMin)
	assert.Equal(t, 100.0, res.CleanedMax)
	assert.Equal(t, 100.0, res.Mean)
	assert.Equal(t, 100.0, res.Median)
	assert.Equal(t, 0.0, res.StdDev)

	// Zero spread means z-score is defined to be zero, not a division error.
	assert.Equal(t, 0.0, res.ZScore)
	assert.True(t, res.IsRealistic)
	assert.False(t, res.IsOutlier)
	assert.Equal(t, "100.00 - 100.00", res.PriceRange)
}

func TestAnalyzeUnrealisticQuote(t *testing.T) {
	a := NewAnalyzer()
	market := []float64{1000, 1050, 980, 1020, 990, 1010, 1040, 995}

	res := a.Analyze(market, 5000)

	assert.False(t, res.IsRealistic)
	assert.True(t, res.IsOutlier)
	assert.Greater(t, res.ZScore, a.ZScoreThreshold)
	assert.InDelta(t, 100.0, res.Percentile, 0.01)
}

func TestAnalyzeRealisticQuote(t *testing.T) {
	a := NewAnalyzer()
	market := []float64{1000, 1050, 980, 1020, 990, 1010, 1040, 995}

	res := a.Analyze(market, 1005)

	assert.True(t, res.IsRealistic)
	assert.False(t, res.IsOutlier)
	assert.InDelta(t, 0, res.ZScore, 1.0)
}

func TestAnalyzeEmptySample(t *testing.T) {
	a := NewAnalyzer()

	res := a.Analyze(nil, 1200)

	assert.False(t, res.IsRealistic)
	assert.Zero(t, res.CleanedSize)
	assert.Equal(t, NotEnoughData, res.PriceRange)
}

func TestExpectedRange(t *testing.T) {
	a := NewAnalyzer()

	assert.Equal(t, NotEnoughData, a.ExpectedRange(nil))
	assert.Equal(t, "100.00 - 100.00", a.ExpectedRange([]float64{100, 100, 100, 100, 500}))

	got := a.ExpectedRange([]float64{100, 200, 300, 400})
	assert.Equal(t, "175.00 - 325.00", got)
}

func TestQuartilesInterpolation(t *testing.T) {
	q1, q3 := quartiles([]float64{1, 2, 3, 4})
	assert.Equal(t, 1.75, q1)
	assert.Equal(t, 3.25, q3)
}

func TestPercentileRank(t *testing.T) {
	sample := []float64{10, 20, 30, 40}

	assert.Equal(t, 0.0, percentileRank(sample, 5))
	assert.Equal(t, 100.0, percentileRank(sample, 50))
	// Ties get half weight.
	assert.Equal(t, 37.5, percentileRank(sample, 20))
}

func TestSmallSamplesAreNotTrimmed(t *testing.T) {
	a := NewAnalyzer()

	res := a.Analyze([]float64{100, 9000}, 100)
	require.Equal(t, 2, res.CleanedSize)
	assert.Equal(t, 9000.0, res.CleanedMax)
}

func TestConfigurableIQRMultiplier(t *testing.T) {
	wide := &Analyzer{IQRMultiplier: 100, ZScoreThreshold: DefaultZScoreThreshold}

	// With very wide fences nothing is trimmed.
	res := wide.Analyze([]float64{100, 200, 300, 400, 5000}, 100)
	assert.Equal(t, 5, res.CleanedSize)

	res = NewAnalyzer().Analyze([]float64{100, 200, 300, 400, 5000}, 100)
	assert.Equal(t, 4, res.CleanedSize)
}
