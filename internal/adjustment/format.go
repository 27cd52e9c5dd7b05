package adjustment

import (
	"math"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var englishPrinter = message.NewPrinter(language.English)

// FormatAdjustment renders a signed dollar amount with an explicit sign and
// no cents: 12345 -> "+$12,345", -500 -> "-$500", 0 -> "$0".
func FormatAdjustment(value float64) string {
	rounded := int64(math.Round(math.Abs(value)))
	switch {
	case value > 0:
		return englishPrinter.Sprintf("+$%d", rounded)
	case value < 0:
		return englishPrinter.Sprintf("-$%d", rounded)
	default:
		return "$0"
	}
}

// FormatPrice renders an unsigned dollar amount with no cents: 435000 ->
// "$435,000". Negative values keep their sign.
func FormatPrice(value float64) string {
	rounded := int64(math.Round(math.Abs(value)))
	if value < 0 {
		return englishPrinter.Sprintf("-$%d", rounded)
	}
	return englishPrinter.Sprintf("$%d", rounded)
}

// displayNumber renders a raw feature value for a line. Zero means the value
// was missing or unparseable upstream.
func displayNumber(v float64) string {
	if v == 0 {
		return "Unknown"
	}
	if v == math.Trunc(v) {
		return englishPrinter.Sprintf("%d", int64(v))
	}
	return englishPrinter.Sprintf("%.1f", v)
}

// UniqueFeatures collects the distinct feature names across results for a
// side-by-side table: canonical features first in fixed order, then custom
// names lexically.
func UniqueFeatures(results []Result) []string {
	seen := map[string]bool{}
	for _, res := range results {
		for _, line := range res.Lines {
			seen[line.Feature] = true
		}
	}

	features := make([]string, 0, len(seen))
	for _, name := range canonicalFeatures {
		if seen[name] {
			features = append(features, name)
			delete(seen, name)
		}
	}

	customs := make([]string, 0, len(seen))
	for name := range seen {
		customs = append(customs, name)
	}
	sort.Strings(customs)

	return append(features, customs...)
}
