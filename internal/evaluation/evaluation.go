// Package evaluation scores a fitted classifier on held-out data.
package evaluation

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/JaimeStill/churn/internal/churn"
	"github.com/JaimeStill/churn/pkg/classifier"
	"github.com/JaimeStill/churn/pkg/metrics"
)

// ReportDigits is the precision of the classification report.
const ReportDigits = 2

// Importance is the weight a model assigns to one feature.
type Importance struct {
	Feature string  `json:"feature"`
	Display string  `json:"display"`
	Value   float64 `json:"value"`
}

// Metrics holds test-set performance. AUCROC and AveragePrecision are
// metrics.Undefined when the test labels lack a class. Importances is nil for
// models without feature importances.
type Metrics struct {
	metrics.Summary
	AUCROC               float64           `json:"auc_roc"`
	AveragePrecision     float64           `json:"average_precision"`
	Confusion            metrics.Confusion `json:"confusion_matrix"`
	ClassificationReport string            `json:"classification_report"`
	ROC                  *metrics.Curve    `json:"-"`
	PrecisionRecall      *metrics.Curve    `json:"-"`
	Importances          []Importance      `json:"importances,omitempty"`
}

// Evaluate predicts x with clf and scores the result against y.
// featureNames gives the column order of x.
func Evaluate(clf classifier.Classifier, x mat.Matrix, y []int, featureNames []string) *Metrics {
	pred := clf.Predict(x)
	proba := clf.PredictProba(x)

	m := &Metrics{
		Summary:              metrics.Summarize(y, pred),
		AUCROC:               metrics.ROCAUC(y, proba),
		AveragePrecision:     metrics.AveragePrecision(y, proba),
		Confusion:            metrics.ConfusionMatrix(y, pred),
		ClassificationReport: metrics.ClassificationReport(y, pred, ReportDigits),
	}

	if roc, ok := metrics.ROC(y, proba); ok {
		m.ROC = &roc
	}
	if pr, ok := metrics.PrecisionRecall(y, proba); ok {
		m.PrecisionRecall = &pr
	}

	if imp, ok := clf.(classifier.Importancer); ok {
		m.Importances = rank(imp.FeatureImportances(), featureNames)
	}

	return m
}

func rank(values []float64, names []string) []Importance {
	out := make([]Importance, 0, len(values))
	for j, v := range values {
		if j >= len(names) {
			break
		}
		display, ok := churn.DisplayNames[names[j]]
		if !ok {
			display = names[j]
		}
		out = append(out, Importance{Feature: names[j], Display: display, Value: v})
	}

	slices.SortStableFunc(out, func(a, b Importance) int {
		return cmp.Compare(b.Value, a.Value)
	})
	return out
}
