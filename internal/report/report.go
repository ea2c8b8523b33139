// Package report renders the plain-text churn analysis report persisted with
// the model bundle and parses its headline figures back for consumers.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/JaimeStill/churn/internal/churn"
	"github.com/JaimeStill/churn/internal/evaluation"
	"github.com/JaimeStill/churn/pkg/classifier"
	"github.com/JaimeStill/churn/pkg/formatting"
)

// Line prefixes shared by Render and ParseHeadline.
const (
	Title             = "Análise de Churn - Olist"
	PrefixExecuted    = "Data de execução"
	PrefixCutoff      = "Data de corte para análise de churn"
	PrefixRebalance   = "Método de rebalanceamento"
	PrefixModel       = "Tipo de modelo"
	PrefixClassWeight = "Class weight"
	PrefixRetained    = "Não-churn (0)"
	PrefixChurned     = "Churn (1)"
	PrefixChurnRate   = "Taxa de churn"
	PrefixAccuracy    = "Accuracy"
	PrefixPrecision   = "Precision (weighted)"
	PrefixRecall      = "Recall (weighted)"
	PrefixF1Macro     = "F1 (macro)"
	PrefixF1Weighted  = "F1 (weighted)"
	PrefixAUCROC      = "AUC-ROC"
	PrefixAvgPrec     = "Average Precision Score"

	SectionConfig       = "Configurações:"
	SectionDistribution = "Distribuição de churn:"
	SectionCorrelations = "Top correlações com churn:"
	SectionMetrics      = "Métricas de performance:"
	SectionReport       = "Relatório de classificação:"
	SectionConfusion    = "Matriz de confusão:"
	SectionImportance   = "Importância das features:"
)

const timestampLayout = "2006-01-02 15:04:05"

// Input is everything a report describes.
type Input struct {
	ExecutedAt   time.Time
	Cutoff       time.Time
	Rebalance    string
	Model        classifier.Family
	ClassWeight  classifier.ClassWeight
	Retained     int
	Churned      int
	ChurnRate    float64
	Correlations []churn.Correlation
	Metrics      *evaluation.Metrics
}

// Render produces the report text. Undefined metrics render as
// formatting.Undefined.
func Render(in Input) string {
	var b strings.Builder
	m := in.Metrics

	line := func(prefix, value string) {
		fmt.Fprintf(&b, "%s: %s\n", prefix, value)
	}
	metric := func(prefix string, v float64) {
		line(prefix, formatting.Fixed(v, 4))
	}

	b.WriteString(Title + "\n")
	line(PrefixExecuted, in.ExecutedAt.Format(timestampLayout))
	b.WriteString("\n")

	b.WriteString(SectionConfig + "\n")
	line(PrefixCutoff, in.Cutoff.Format(timestampLayout))
	line(PrefixRebalance, in.Rebalance)
	line(PrefixModel, string(in.Model))
	line(PrefixClassWeight, classWeightLabel(in.ClassWeight))
	b.WriteString("\n")

	b.WriteString(SectionDistribution + "\n")
	line(PrefixRetained, fmt.Sprint(in.Retained))
	line(PrefixChurned, fmt.Sprint(in.Churned))
	line(PrefixChurnRate, formatting.Percent(in.ChurnRate, 2))
	b.WriteString("\n")

	if len(in.Correlations) > 0 {
		b.WriteString(SectionCorrelations + "\n")
		for _, c := range in.Correlations {
			line(c.Feature, formatting.Fixed(c.Value, 4))
		}
		b.WriteString("\n")
	}

	b.WriteString(SectionMetrics + "\n")
	metric(PrefixAccuracy, m.Accuracy)
	metric(PrefixPrecision, m.PrecisionWeighted)
	metric(PrefixRecall, m.RecallWeighted)
	metric(PrefixF1Macro, m.F1Macro)
	metric(PrefixF1Weighted, m.F1Weighted)
	metric(PrefixAUCROC, m.AUCROC)
	metric(PrefixAvgPrec, m.AveragePrecision)
	b.WriteString("\n")

	b.WriteString(SectionReport + "\n")
	b.WriteString(m.ClassificationReport)
	b.WriteString("\n")

	b.WriteString(SectionConfusion + "\n")
	b.WriteString(m.Confusion.String())
	b.WriteString("\n\n")

	if m.Importances != nil {
		b.WriteString("\n" + SectionImportance + "\n")
		for _, imp := range m.Importances {
			line(fmt.Sprintf("%s (%s)", imp.Feature, imp.Display), formatting.Fixed(imp.Value, 4))
		}
	}

	return b.String()
}

func classWeightLabel(w classifier.ClassWeight) string {
	if w == classifier.Balanced {
		return string(w)
	}
	return "None"
}
