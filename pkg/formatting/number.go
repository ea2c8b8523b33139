package formatting

import (
	"math"
	"strconv"
)

// Undefined is the rendering used for metrics that cannot be computed,
// such as AUC-ROC on a single-class test set.
const Undefined = "indefinido"

// Fixed renders v with the given number of decimals. NaN renders as Undefined.
func Fixed(v float64, decimals int) string {
	if math.IsNaN(v) {
		return Undefined
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// Percent renders a ratio in [0,1] as a percentage with the given decimals
// (0.2345 -> "23.45%"). NaN renders as Undefined.
func Percent(ratio float64, decimals int) string {
	if math.IsNaN(ratio) {
		return Undefined
	}
	return strconv.FormatFloat(ratio*100, 'f', decimals, 64) + "%"
}

// ParseFixed is the inverse of Fixed. Undefined parses back to NaN.
func ParseFixed(s string) (float64, error) {
	if s == Undefined {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
