// Package pricing analyzes whether a quoted repair or replacement price is
// realistic against a sample of market prices. The market sample arrives
// from web research and is noisy, so statistics are always computed on an
// outlier-trimmed copy of the sample.
package pricing

import (
	"fmt"
	"math"
	"sort"
)

const (
	// DefaultIQRMultiplier is the fence width for outlier trimming:
	// values beyond Q1/Q3 by more than this many IQRs are removed.
	DefaultIQRMultiplier = 1.5

	// DefaultZScoreThreshold bounds |z| for a price to count as realistic.
	DefaultZScoreThreshold = 2.0
)

// NotEnoughData is returned by ExpectedRange when the trimmed sample is
// empty.
const NotEnoughData = "not enough data"

// Analyzer holds the tunable thresholds. The zero value is not usable; use
// NewAnalyzer.
type Analyzer struct {
	IQRMultiplier   float64
	ZScoreThreshold float64
}

// NewAnalyzer returns an analyzer with the default thresholds.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		IQRMultiplier:   DefaultIQRMultiplier,
		ZScoreThreshold: DefaultZScoreThreshold,
	}
}

// Analysis is the verdict for one quoted price.
type Analysis struct {
	IsRealistic bool    `json:"isRealistic"`
	Mean        float64 `json:"mean"`
	Median      float64 `json:"median"`
	StdDev      float64 `json:"stdDev"`
	ZScore      float64 `json:"zScore"`
	Percentile  float64 `json:"percentile"`
	IsOutlier   bool    `json:"isOutlier"`
	PriceRange  string  `json:"priceRange"`
	CleanedSize int     `json:"cleanedSize"`
	CleanedMin  float64 `json:"cleanedMin"`
	CleanedMax  float64 `json:"cleanedMax"`
}

// Analyze trims outliers from the market sample, computes statistics on the
// cleaned sample and classifies the quoted price.
func (a *Analyzer) Analyze(marketPrices []float64, quotedPrice float64) Analysis {
	cleaned := a.removeOutliers(marketPrices)

	res := Analysis{
		CleanedSize: len(cleaned),
		PriceRange:  a.ExpectedRange(marketPrices),
	}
	if len(cleaned) == 0 {
		return res
	}

	res.CleanedMin = cleaned[0]
	res.CleanedMax = cleaned[len(cleaned)-1]
	res.Mean = mean(cleaned)
	res.Median = median(cleaned)
	res.StdDev = stdDev(cleaned, res.Mean)

	if res.StdDev != 0 {
		res.ZScore = (quotedPrice - res.Mean) / res.StdDev
	}
	res.Percentile = percentileRank(cleaned, quotedPrice)

	q1, q3 := quartiles(cleaned)
	iqr := q3 - q1
	low := q1 - a.IQRMultiplier*iqr
	high := q3 + a.IQRMultiplier*iqr
	res.IsOutlier = quotedPrice < low || quotedPrice > high

	res.IsRealistic = math.Abs(res.ZScore) < a.ZScoreThreshold
	return res
}

// ExpectedRange formats the Q1-Q3 span of the outlier-trimmed sample as
// "low - high", or NotEnoughData when the trimmed sample is empty.
func (a *Analyzer) ExpectedRange(prices []float64) string {
	cleaned := a.removeOutliers(prices)
	if len(cleaned) == 0 {
		return NotEnoughData
	}
	q1, q3 := quartiles(cleaned)
	return fmt.Sprintf("%.2f - %.2f", q1, q3)
}

// Summary renders the analysis as the plain-text evidence block handed to
// the settlement calculator.
func (r Analysis) Summary(quotedPrice float64) string {
	verdict := "UNREALISTIC"
	if r.IsRealistic {
		verdict = "REALISTIC"
	}
	return fmt.Sprintf(
		"Quoted price %.2f is %s (z-score %.2f, percentile %.1f).\n"+
			"Market sample after outlier removal: n=%d, mean %.2f, median %.2f, std dev %.2f.\n"+
			"Expected range: %s. Quoted price outlier: %v.",
		quotedPrice, verdict, r.ZScore, r.Percentile,
		r.CleanedSize, r.Mean, r.Median, r.StdDev,
		r.PriceRange, r.IsOutlier,
	)
}

// removeOutliers drops values beyond the IQR fences of the raw sample.
// Samples too small to have meaningful quartiles are returned as-is.
func (a *Analyzer) removeOutliers(prices []float64) []float64 {
	if len(prices) < 4 {
		out := make([]float64, len(prices))
		copy(out, prices)
		sort.Float64s(out)
		return out
	}

	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	q1, q3 := quartiles(sorted)
	iqr := q3 - q1
	low := q1 - a.IQRMultiplier*iqr
	high := q3 + a.IQRMultiplier*iqr

	cleaned := make([]float64, 0, len(sorted))
	for _, p := range sorted {
		if p >= low && p <= high {
			cleaned = append(cleaned, p)
		}
	}
	return cleaned
}

// quartiles returns Q1 and Q3 of a sorted-or-unsorted sample using linear
// interpolation between closest ranks.
func quartiles(prices []float64) (q1, q3 float64) {
	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)
	return quantile(sorted, 0.25), quantile(sorted, 0.75)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func mean(prices []float64) float64 {
	var sum float64
	for _, p := range prices {
		sum += p
	}
	return sum / float64(len(prices))
}

func median(prices []float64) float64 {
	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// stdDev is the population standard deviation.
func stdDev(prices []float64, m float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	var sum float64
	for _, p := range prices {
		d := p - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(prices)))
}

// percentileRank is the share of the sample strictly below the value, with
// half weight for ties, as a percentage.
func percentileRank(prices []float64, value float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	var below, equal float64
	for _, p := range prices {
		switch {
		case p < value:
			below++
		case p == value:
			equal++
		}
	}
	return (below + equal/2) / float64(len(prices)) * 100
}
