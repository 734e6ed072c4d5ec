package fraud

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func allZeroResults(table WeightTable) map[string]float64 {
	results := make(map[string]float64, len(table))
	for name := range table {
		results[name] = 0
	}
	return results
}

func TestScoreAllIndicatorsTriggered(t *testing.T) {
	table := DefaultWeights()

	res, err := Score(allZeroResults(table), table)
	require.NoError(t, err)

	// Every observed value (0) is below its weight, so every indicator
	// contributes its full weight and the table sums to 1.00.
	assert.Equal(t, 100, res.TotalPercent)
	assert.Equal(t, RiskHigh, res.Level)
	for _, ind := range res.Indicators {
		assert.False(t, ind.Passed, ind.Name)
		assert.Equal(t, ind.Weight, ind.Contribution, ind.Name)
	}
}

func TestScoreAllIndicatorsPassed(t *testing.T) {
	table := DefaultWeights()
	results := make(map[string]float64, len(table))
	for name := range table {
		results[name] = 1.0
	}

	res, err := Score(results, table)
	require.NoError(t, err)

	assert.Equal(t, 0, res.TotalPercent)
	assert.Equal(t, RiskLow, res.Level)
	for _, ind := range res.Indicators {
		assert.True(t, ind.Passed, ind.Name)
		assert.Zero(t, ind.Contribution, ind.Name)
	}
}

func TestRiskLevelBoundaries(t *testing.T) {
	testCases := []struct {
		percent int
		level   RiskLevel
	}{
		{0, RiskLow},
		{15, RiskLow},  // boundary inclusive
		{16, RiskMedium},
		{50, RiskMedium}, // boundary inclusive
		{51, RiskHigh},
		{100, RiskHigh},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.level, levelFor(tc.percent), "total %d%%", tc.percent)
	}
}

func TestRiskLevelBoundariesViaScore(t *testing.T) {
	// total risk exactly 0.15 -> LOW
	table := WeightTable{"a": 0.15, "b": 0.85}
	res, err := Score(map[string]float64{"a": 0.0, "b": 1.0}, table)
	require.NoError(t, err)
	assert.Equal(t, 15, res.TotalPercent)
	assert.Equal(t, RiskLow, res.Level)

	// total risk exactly 0.50 -> MEDIUM
	table = WeightTable{"a": 0.50, "b": 0.50}
	res, err = Score(map[string]float64{"a": 0.0, "b": 1.0}, table)
	require.NoError(t, err)
	assert.Equal(t, 50, res.TotalPercent)
	assert.Equal(t, RiskMedium, res.Level)

	// total risk 0.51 -> HIGH
	table = WeightTable{"a": 0.51, "b": 0.49}
	res, err = Score(map[string]float64{"a": 0.0, "b": 1.0}, table)
	require.NoError(t, err)
	assert.Equal(t, 51, res.TotalPercent)
	assert.Equal(t, RiskHigh, res.Level)
}

func TestScoreKeyMismatch(t *testing.T) {
	table := DefaultWeights()

	t.Run("missing indicator", func(t *testing.T) {
		results := allZeroResults(table)
		delete(results, "claimant_exists")

		_, err := Score(results, table)
		require.Error(t, err)
		var mismatch *MismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, []string{"claimant_exists"}, mismatch.Missing)
		assert.Empty(t, mismatch.Unexpected)
	})

	t.Run("unexpected indicator", func(t *testing.T) {
		results := allZeroResults(table)
		results["made_up_check"] = 0.5

		_, err := Score(results, table)
		var mismatch *MismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, []string{"made_up_check"}, mismatch.Unexpected)
	})
}

func TestScoreRejectsInvalidTable(t *testing.T) {
	table := WeightTable{"a": 0.8, "b": 0.5} // sums past 1.0
	_, err := Score(map[string]float64{"a": 0, "b": 0}, table)
	require.Error(t, err)
}

func TestWeightTableValidate(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())
	assert.Error(t, WeightTable{}.Validate())
	assert.Error(t, WeightTable{"a": -0.1}.Validate())
	assert.Error(t, WeightTable{"a": 1.2}.Validate())
}

func TestLoadWeights(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/weights.yaml"
	require.NoError(t, writeFile(path, "indicators:\n  only_check: 0.4\n"))

	defer func() {
		mu.Lock()
		current = DefaultWeights()
		mu.Unlock()
	}()

	require.NoError(t, LoadWeights(path))
	got := Weights()
	require.Len(t, got, 1)
	assert.Equal(t, 0.4, got["only_check"])

	// Invalid file keeps the loaded table.
	require.NoError(t, writeFile(path, "indicators:\n  bad: 3.0\n"))
	require.Error(t, LoadWeights(path))
	assert.Equal(t, 0.4, Weights()["only_check"])
}
