package report_test

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/churn/internal/churn"
	"github.com/JaimeStill/churn/internal/evaluation"
	"github.com/JaimeStill/churn/internal/report"
	"github.com/JaimeStill/churn/pkg/classifier"
	"github.com/JaimeStill/churn/pkg/metrics"
)

func fixture() report.Input {
	y := []int{0, 0, 0, 1, 1, 1, 1}
	pred := []int{0, 1, 0, 1, 0, 1, 1}

	return report.Input{
		ExecutedAt:  time.Date(2026, 3, 1, 14, 5, 9, 0, time.UTC),
		Cutoff:      time.Date(2018, 4, 17, 0, 0, 0, 0, time.UTC),
		Rebalance:   "smote",
		Model:       classifier.RandomForest,
		ClassWeight: classifier.Balanced,
		Retained:    3,
		Churned:     4,
		ChurnRate:   4.0 / 7,
		Correlations: []churn.Correlation{
			{Feature: churn.LabelColumn, Value: 1},
			{Feature: churn.FeatRecency, Value: 0.61234},
			{Feature: churn.FeatAvgReview, Value: -0.1},
		},
		Metrics: &evaluation.Metrics{
			Summary:              metrics.Summarize(y, pred),
			AUCROC:               0.8125,
			AveragePrecision:     metrics.Undefined,
			Confusion:            metrics.ConfusionMatrix(y, pred),
			ClassificationReport: metrics.ClassificationReport(y, pred, 2),
			Importances: []evaluation.Importance{
				{Feature: churn.FeatRecency, Display: "Dias desde última compra", Value: 0.7},
				{Feature: churn.FeatNumOrders, Display: "Número de compras", Value: 0.3},
			},
		},
	}
}

func TestRenderLayout(t *testing.T) {
	text := report.Render(fixture())

	wantPrefix := "" +
		"Análise de Churn - Olist\n" +
		"Data de execução: 2026-03-01 14:05:09\n" +
		"\n" +
		"Configurações:\n" +
		"Data de corte para análise de churn: 2018-04-17 00:00:00\n" +
		"Método de rebalanceamento: smote\n" +
		"Tipo de modelo: random_forest\n" +
		"Class weight: balanced\n" +
		"\n" +
		"Distribuição de churn:\n" +
		"Não-churn (0): 3\n" +
		"Churn (1): 4\n" +
		"Taxa de churn: 57.14%\n" +
		"\n" +
		"Top correlações com churn:\n" +
		"churn: 1.0000\n" +
		"recency: 0.6123\n" +
		"avg_review: -0.1000\n" +
		"\n" +
		"Métricas de performance:\n" +
		"Accuracy: 0.7143\n"

	if !strings.HasPrefix(text, wantPrefix) {
		t.Errorf("Render prefix mismatch:\n%s", text)
	}

	for _, want := range []string{
		"AUC-ROC: 0.8125\n",
		"Average Precision Score: indefinido\n",
		"Matriz de confusão:\n[[2 1]\n [1 3]]\n\n\nImportância das features:\n",
		"recency (Dias desde última compra): 0.7000\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Render missing %q", want)
		}
	}
}

func TestRenderWithoutImportances(t *testing.T) {
	in := fixture()
	in.Metrics.Importances = nil
	in.ClassWeight = classifier.Unweighted

	text := report.Render(in)
	if strings.Contains(text, report.SectionImportance) {
		t.Error("importance section rendered without importances")
	}
	if !strings.Contains(text, "Class weight: None\n") {
		t.Error("unweighted class weight should render as None")
	}
}

func TestParseHeadlineRoundTrip(t *testing.T) {
	in := fixture()
	h, err := report.ParseHeadline(report.Render(in))
	if err != nil {
		t.Fatalf("ParseHeadline error: %v", err)
	}

	if math.Abs(h.Accuracy-in.Metrics.Accuracy) > 1e-4 {
		t.Errorf("Accuracy = %v, want %v", h.Accuracy, in.Metrics.Accuracy)
	}
	if h.AUCROC != 0.8125 {
		t.Errorf("AUCROC = %v, want 0.8125", h.AUCROC)
	}
	if !math.IsNaN(h.AveragePrecision) {
		t.Errorf("AveragePrecision = %v, want NaN", h.AveragePrecision)
	}
	if h.Retained != 3 || h.Churned != 4 || h.ChurnRate != "57.14%" {
		t.Errorf("distribution = %d/%d %s", h.Retained, h.Churned, h.ChurnRate)
	}
	if h.Confusion != in.Metrics.Confusion {
		t.Errorf("Confusion = %v, want %v", h.Confusion, in.Metrics.Confusion)
	}
	if len(h.Correlations) != 3 || h.Correlations[0].Feature != churn.LabelColumn {
		t.Errorf("Correlations = %v", h.Correlations)
	}
	if len(h.Importances) != 2 {
		t.Fatalf("Importances = %v", h.Importances)
	}
	if got := h.Importances[0]; got.Feature != churn.FeatRecency || got.Display != "Dias desde última compra" || got.Value != 0.7 {
		t.Errorf("Importances[0] = %+v", got)
	}
}

func TestParseHeadlineMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"missing metrics", "Análise de Churn - Olist\nNão-churn (0): 3\nChurn (1): 4\n"},
		{"bad number", strings.Replace(report.Render(fixture()), "Accuracy: 0.7143", "Accuracy: abc", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := report.ParseHeadline(tt.text); !errors.Is(err, report.ErrMalformedReport) {
				t.Errorf("error = %v, want ErrMalformedReport", err)
			}
		})
	}
}
