// Package fraud computes the deterministic risk score a fraud-detection team
// attaches to its findings. Scoring is pure: observed indicator values go in,
// weighted risk contributions come out. The opaque judgement of whether an
// individual indicator looks suspicious belongs to the investigators, not
// here.
package fraud

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// RiskLevel buckets the total risk percentage.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Risk-level boundaries are inclusive: a total of exactly 15 is LOW and
// exactly 50 is MEDIUM.
const (
	lowThreshold    = 15
	mediumThreshold = 50
)

// IndicatorScore is one indicator's contribution to the total.
type IndicatorScore struct {
	Name         string  `json:"name"`
	Observed     float64 `json:"observed"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
	Passed       bool    `json:"passed"`
}

// Result is the full scoring breakdown for one claim.
type Result struct {
	Indicators   []IndicatorScore `json:"indicators"`
	TotalPercent int              `json:"totalPercent"`
	Level        RiskLevel        `json:"level"`
}

// MismatchError reports an indicator set that does not exactly match the
// weight table. It is an input error: no retry, no partial score.
type MismatchError struct {
	Missing    []string
	Unexpected []string
}

func (e *MismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing indicators: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected indicators: %s", strings.Join(e.Unexpected, ", ")))
	}
	return "indicator set mismatch: " + strings.Join(parts, "; ")
}

// Score computes the weighted risk for a complete set of indicator results.
// The key set of results must equal the key set of the table exactly. An
// indicator whose observed value is below its weight is treated as a fraud
// signal and contributes its full weight; otherwise it passes and
// contributes nothing. The total is reported as a rounded integer
// percentage.
func Score(results map[string]float64, table WeightTable) (*Result, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	var missing, unexpected []string
	for name := range table {
		if _, ok := results[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range results {
		if _, ok := table[name]; !ok {
			unexpected = append(unexpected, name)
		}
	}
	if len(missing) > 0 || len(unexpected) > 0 {
		sort.Strings(missing)
		sort.Strings(unexpected)
		return nil, &MismatchError{Missing: missing, Unexpected: unexpected}
	}

	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	res := &Result{Indicators: make([]IndicatorScore, 0, len(names))}
	var total float64
	for _, name := range names {
		weight := table[name]
		observed := results[name]
		score := IndicatorScore{Name: name, Observed: observed, Weight: weight, Passed: true}
		if observed < weight {
			score.Passed = false
			score.Contribution = weight
			total += weight
		}
		res.Indicators = append(res.Indicators, score)
	}

	res.TotalPercent = int(math.Round(total * 100))
	res.Level = levelFor(res.TotalPercent)
	return res, nil
}

func levelFor(totalPercent int) RiskLevel {
	switch {
	case totalPercent <= lowThreshold:
		return RiskLow
	case totalPercent <= mediumThreshold:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Summary renders a scoring result as the plain-text evidence block handed
// to the fraud-risk analyst.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weighted fraud risk: %d%% (%s)\n", r.TotalPercent, r.Level)
	for _, ind := range r.Indicators {
		status := "passed"
		if !ind.Passed {
			status = "flagged"
		}
		fmt.Fprintf(&b, "- %s: %s (observed %.2f, weight %.2f)\n", ind.Name, status, ind.Observed, ind.Weight)
	}
	return b.String()
}
