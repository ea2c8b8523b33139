package metrics

import (
	"slices"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Curve is a sequence of (X, Y) points with the score threshold producing each.
type Curve struct {
	X          []float64
	Y          []float64
	Thresholds []float64
}

// ROC returns the receiver operating characteristic with false positive rate
// on X and true positive rate on Y, ordered by increasing X. It returns false
// when y holds a single class.
func ROC(y []int, scores []float64) (Curve, bool) {
	if !bothClasses(y) {
		return Curve{}, false
	}

	sorted, classes := sortByScore(y, scores)
	tpr, fpr, thresh := stat.ROC(nil, sorted, classes, nil)
	return Curve{X: fpr, Y: tpr, Thresholds: thresh}, true
}

// ROCAUC returns the area under the ROC curve of positive-class scores, or
// Undefined when y holds a single class.
func ROCAUC(y []int, scores []float64) float64 {
	curve, ok := ROC(y, scores)
	if !ok {
		return Undefined
	}
	return integrate.Trapezoidal(curve.X, curve.Y)
}

// PrecisionRecall returns the precision-recall curve with recall on X and
// precision on Y, one point per distinct score from the highest threshold
// down, ending at the point where every positive is recalled. It returns
// false when y has no positive samples.
func PrecisionRecall(y []int, scores []float64) (Curve, bool) {
	positives := 0
	for _, v := range y {
		positives += v
	}
	if positives == 0 {
		return Curve{}, false
	}

	order := make([]int, len(y))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	var curve Curve
	var tp, fp int
	for i, idx := range order {
		tp += y[idx]
		fp += 1 - y[idx]

		// Emit one point per distinct threshold.
		if i+1 < len(order) && scores[order[i+1]] == scores[idx] {
			continue
		}

		curve.X = append(curve.X, float64(tp)/float64(positives))
		curve.Y = append(curve.Y, float64(tp)/float64(tp+fp))
		curve.Thresholds = append(curve.Thresholds, scores[idx])
		if tp == positives {
			break
		}
	}
	return curve, true
}

// AveragePrecision summarises the precision-recall curve as the
// recall-weighted mean of precision at each threshold, or Undefined when y
// has no positive samples.
func AveragePrecision(y []int, scores []float64) float64 {
	curve, ok := PrecisionRecall(y, scores)
	if !ok {
		return Undefined
	}

	var ap, prev float64
	for i, r := range curve.X {
		ap += (r - prev) * curve.Y[i]
		prev = r
	}
	return ap
}

func bothClasses(y []int) bool {
	var seen [2]bool
	for _, v := range y {
		seen[v] = true
	}
	return seen[0] && seen[1]
}

// sortByScore orders scores ascending with labels alongside, as stat.ROC requires.
func sortByScore(y []int, scores []float64) ([]float64, []bool) {
	order := make([]int, len(y))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case scores[a] < scores[b]:
			return -1
		case scores[a] > scores[b]:
			return 1
		}
		return 0
	})

	sorted := make([]float64, len(order))
	classes := make([]bool, len(order))
	for i, idx := range order {
		sorted[i] = scores[idx]
		classes[i] = y[idx] == 1
	}
	return sorted, classes
}
