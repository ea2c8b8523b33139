// Package metrics computes binary classification metrics over 0/1 labels:
// confusion counts, accuracy, per-class and averaged precision/recall/F1,
// ROC AUC, and average precision. Precision, recall, and F1 follow the
// zero-division-as-zero convention; ranking metrics that are undefined for a
// single-class label set return Undefined.
package metrics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Undefined marks a metric with no meaningful value, such as AUC over a
// label set with one class.
var Undefined = math.NaN()

// IsUndefined reports whether v carries no meaningful value.
func IsUndefined(v float64) bool {
	return math.IsNaN(v)
}

// Confusion holds counts indexed [true class][predicted class].
type Confusion [2][2]int

// ConfusionMatrix counts outcomes of pred against y.
func ConfusionMatrix(y, pred []int) Confusion {
	var c Confusion
	for i := range y {
		c[y[i]][pred[i]]++
	}
	return c
}

// Total returns the number of counted samples.
func (c Confusion) Total() int {
	return c[0][0] + c[0][1] + c[1][0] + c[1][1]
}

// Support returns the number of true samples of class k.
func (c Confusion) Support(k int) int {
	return c[k][0] + c[k][1]
}

// String renders the matrix as a right-aligned nested list:
//
//	[[250  50]
//	 [ 30  60]]
func (c Confusion) String() string {
	width := 0
	for _, row := range c {
		for _, v := range row {
			width = max(width, len(strconv.Itoa(v)))
		}
	}

	cell := func(v int) string {
		return fmt.Sprintf("%*d", width, v)
	}

	return fmt.Sprintf("[[%s %s]\n [%s %s]]",
		cell(c[0][0]), cell(c[0][1]),
		cell(c[1][0]), cell(c[1][1]),
	)
}

// ClassScores holds the one-vs-rest scores of a single class.
type ClassScores struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// PerClass returns the scores of classes 0 and 1.
func (c Confusion) PerClass() [2]ClassScores {
	var out [2]ClassScores
	for k := range 2 {
		tp := float64(c[k][k])
		predicted := float64(c[0][k] + c[1][k])
		actual := float64(c.Support(k))

		s := ClassScores{Support: c.Support(k)}
		s.Precision = ratio(tp, predicted)
		s.Recall = ratio(tp, actual)
		s.F1 = ratio(2*s.Precision*s.Recall, s.Precision+s.Recall)
		out[k] = s
	}
	return out
}

// Summary holds the headline metrics of a set of predictions.
type Summary struct {
	Accuracy          float64 `json:"accuracy"`
	PrecisionWeighted float64 `json:"precision_weighted"`
	RecallWeighted    float64 `json:"recall_weighted"`
	F1Macro           float64 `json:"f1_macro"`
	F1Weighted        float64 `json:"f1_weighted"`
}

// Summarize computes accuracy and the macro and support-weighted averages.
func Summarize(y, pred []int) Summary {
	c := ConfusionMatrix(y, pred)
	scores := c.PerClass()
	total := float64(c.Total())

	var s Summary
	s.Accuracy = ratio(float64(c[0][0]+c[1][1]), total)
	for _, k := range scores {
		w := ratio(float64(k.Support), total)
		s.PrecisionWeighted += w * k.Precision
		s.RecallWeighted += w * k.Recall
		s.F1Weighted += w * k.F1
		s.F1Macro += k.F1 / 2
	}
	return s
}

// Accuracy returns the fraction of correct predictions.
func Accuracy(y, pred []int) float64 {
	return Summarize(y, pred).Accuracy
}

// F1Macro returns the unweighted mean of the per-class F1 scores.
func F1Macro(y, pred []int) float64 {
	return Summarize(y, pred).F1Macro
}

// ClassificationReport renders per-class precision, recall, F1, and support
// followed by accuracy, macro, and weighted averages in the conventional
// fixed-width text layout.
func ClassificationReport(y, pred []int, digits int) string {
	const width = len("weighted avg")

	c := ConfusionMatrix(y, pred)
	scores := c.PerClass()
	summary := Summarize(y, pred)
	total := c.Total()

	num := func(v float64) string {
		return fmt.Sprintf(" %9.*f", digits, v)
	}
	row := func(label string, p, r, f float64, support int) string {
		return fmt.Sprintf("%*s ", width, label) + num(p) + num(r) + num(f) + fmt.Sprintf(" %9d\n", support)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s  %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for k, s := range scores {
		b.WriteString(row(strconv.Itoa(k), s.Precision, s.Recall, s.F1, s.Support))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "%*s  %9s %9s", width, "accuracy", "", "")
	b.WriteString(num(summary.Accuracy))
	fmt.Fprintf(&b, " %9d\n", total)

	b.WriteString(row("macro avg",
		(scores[0].Precision+scores[1].Precision)/2,
		(scores[0].Recall+scores[1].Recall)/2,
		summary.F1Macro,
		total,
	))
	b.WriteString(row("weighted avg",
		summary.PrecisionWeighted,
		summary.RecallWeighted,
		summary.F1Weighted,
		total,
	))
	return b.String()
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
