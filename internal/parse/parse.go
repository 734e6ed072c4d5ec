// Package parse extracts structured fields from the tagged text emitted by
// investigators. The reasoning service is asked to wrap findings in a small
// XML-ish micro-format, but its output is free text: tags may be missing,
// values may carry comment markers, and whole responses are frequently
// wrapped in markdown code fences. Every extractor here is total over
// arbitrary input.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// UnknownValue is the sentinel investigators use when a numeric field could
// not be determined. It parses as 0.0 rather than an error.
const UnknownValue = "Information Not Available"

var (
	fraudScoreRe      = regexp.MustCompile(`(?s)<fraud_score>(.*?)</fraud_score>`)
	discoveryRe       = regexp.MustCompile(`(?s)<discovery>(.*?)</discovery>`)
	indicatorRe       = regexp.MustCompile(`(?s)<indicator>(.*?)</indicator>`)
	recommendationRe  = regexp.MustCompile(`(?s)<recommendation>(.*?)</recommendation>`)
	operationStatusRe = regexp.MustCompile(`(?s)<claims_operation_status>(.*?)</claims_operation_status>`)
	marketPriceRe     = regexp.MustCompile(`(?s)<market_price>(.*?)</market_price>`)
)

// StripWrapper removes whole-document artifacts the reasoning service tends
// to add around tagged output: a leading "xml" language hint and markdown
// code fences. It must run before any sectional extraction.
func StripWrapper(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```xml")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "xml")
	return strings.TrimSpace(s)
}

// cleanValue strips leading comment markers and surrounding whitespace from a
// captured tag body.
func cleanValue(raw string) string {
	s := strings.TrimSpace(raw)
	for _, marker := range []string{"//", "#", "<!--"} {
		s = strings.TrimPrefix(s, marker)
	}
	s = strings.TrimSuffix(s, "-->")
	return strings.TrimSpace(s)
}

// FraudScore extracts the <fraud_score> value. A missing tag or the
// "Information Not Available" sentinel yields 0.0; any other non-numeric
// content is a parsing error.
func FraudScore(text string) (float64, error) {
	m := fraudScoreRe.FindStringSubmatch(StripWrapper(text))
	if m == nil {
		return 0.0, nil
	}
	v := cleanValue(m[1])
	if v == "" || strings.EqualFold(v, UnknownValue) {
		return 0.0, nil
	}
	score, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("fraud score %q is not numeric: %w", v, err)
	}
	return score, nil
}

// Discoveries returns every <discovery> entry in document order. Missing
// tags yield an empty, non-nil slice.
func Discoveries(text string) []string {
	return extractAll(discoveryRe, text)
}

// Indicators returns every <indicator> entry in document order.
func Indicators(text string) []string {
	return extractAll(indicatorRe, text)
}

// Recommendations returns every <recommendation> entry in document order.
func Recommendations(text string) []string {
	return extractAll(recommendationRe, text)
}

// OperationStatus extracts the <claims_operation_status> marker, or "" when
// absent.
func OperationStatus(text string) string {
	m := operationStatusRe.FindStringSubmatch(StripWrapper(text))
	if m == nil {
		return ""
	}
	return cleanValue(m[1])
}

// MarketPrices extracts every numeric <market_price> entry. Entries that do
// not parse as numbers are skipped; currency symbols and thousands
// separators are tolerated.
func MarketPrices(text string) []float64 {
	prices := make([]float64, 0)
	for _, raw := range extractAll(marketPriceRe, text) {
		v := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			prices = append(prices, f)
		}
	}
	return prices
}

// IndicatorValues parses indicator entries of the form "name: value" into a
// map. Entries without a numeric value are recorded as 0 so a downstream
// scorer sees the indicator as unresolved rather than absent.
func IndicatorValues(text string) map[string]float64 {
	values := make(map[string]float64)
	for _, entry := range Indicators(text) {
		name, raw, ok := strings.Cut(entry, ":")
		if !ok {
			name, raw, ok = strings.Cut(entry, "=")
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !ok {
			values[name] = 0
			continue
		}
		raw = strings.TrimSpace(raw)
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			values[name] = f
		} else {
			values[name] = 0
		}
	}
	return values
}

func extractAll(re *regexp.Regexp, text string) []string {
	out := make([]string, 0)
	for _, m := range re.FindAllStringSubmatch(StripWrapper(text), -1) {
		if v := cleanValue(m[1]); v != "" {
			out = append(out, v)
		}
	}
	return out
}
