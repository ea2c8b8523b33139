package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JaimeStill/churn/internal/churn"
	"github.com/JaimeStill/churn/internal/evaluation"
	"github.com/JaimeStill/churn/pkg/formatting"
	"github.com/JaimeStill/churn/pkg/metrics"
)

// Headline holds the figures read back from a rendered report. Metric values
// are NaN when the report marks them undefined.
type Headline struct {
	Accuracy          float64
	PrecisionWeighted float64
	RecallWeighted    float64
	F1Macro           float64
	F1Weighted        float64
	AUCROC            float64
	AveragePrecision  float64
	Retained          int
	Churned           int
	ChurnRate         string
	Confusion         metrics.Confusion
	Correlations      []churn.Correlation
	Importances       []evaluation.Importance
}

// ParseHeadline reads headline figures by line prefix and the confusion
// matrix, correlation, and importance sections by their headers. A missing
// headline metric is ErrMalformedReport; optional sections may be absent.
func ParseHeadline(text string) (*Headline, error) {
	h := &Headline{}

	floats := []struct {
		prefix string
		dst    *float64
	}{
		{PrefixAccuracy, &h.Accuracy},
		{PrefixPrecision, &h.PrecisionWeighted},
		{PrefixRecall, &h.RecallWeighted},
		{PrefixF1Macro, &h.F1Macro},
		{PrefixF1Weighted, &h.F1Weighted},
		{PrefixAUCROC, &h.AUCROC},
		{PrefixAvgPrec, &h.AveragePrecision},
	}
	ints := []struct {
		prefix string
		dst    *int
	}{
		{PrefixRetained, &h.Retained},
		{PrefixChurned, &h.Churned},
	}

	lines := strings.Split(text, "\n")

	for _, f := range floats {
		raw, ok := value(lines, f.prefix)
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrMalformedReport, f.prefix)
		}
		v, err := formatting.ParseFixed(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedReport, f.prefix, err)
		}
		*f.dst = v
	}

	for _, f := range ints {
		raw, ok := value(lines, f.prefix)
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrMalformedReport, f.prefix)
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedReport, f.prefix, err)
		}
		*f.dst = v
	}

	h.ChurnRate, _ = value(lines, PrefixChurnRate)

	if body, ok := section(text, SectionConfusion); ok {
		c, err := parseConfusion(body)
		if err != nil {
			return nil, err
		}
		h.Confusion = c
	}

	if body, ok := section(text, SectionCorrelations); ok {
		for _, l := range strings.Split(body, "\n") {
			name, raw, found := strings.Cut(l, ": ")
			if !found {
				continue
			}
			v, err := formatting.ParseFixed(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: correlation %s: %w", ErrMalformedReport, name, err)
			}
			h.Correlations = append(h.Correlations, churn.Correlation{Feature: name, Value: v})
		}
	}

	if body, ok := section(text, SectionImportance); ok {
		for _, l := range strings.Split(body, "\n") {
			label, raw, found := strings.Cut(l, ": ")
			if !found {
				continue
			}
			feature, display, _ := strings.Cut(label, " (")
			v, err := formatting.ParseFixed(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: importance %s: %w", ErrMalformedReport, feature, err)
			}
			h.Importances = append(h.Importances, evaluation.Importance{
				Feature: feature,
				Display: strings.TrimSuffix(display, ")"),
				Value:   v,
			})
		}
	}

	return h, nil
}

// value returns the text after "prefix: " on the first line that starts with it.
func value(lines []string, prefix string) (string, bool) {
	for _, l := range lines {
		if rest, ok := strings.CutPrefix(l, prefix+": "); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

// section returns the block after header up to the next blank line.
func section(text, header string) (string, bool) {
	_, after, ok := strings.Cut(text, header+"\n")
	if !ok {
		return "", false
	}
	body, _, _ := strings.Cut(after, "\n\n")
	return strings.TrimSpace(body), true
}

func parseConfusion(body string) (metrics.Confusion, error) {
	var c metrics.Confusion
	rows := strings.Split(body, "\n")
	if len(rows) != 2 {
		return c, fmt.Errorf("%w: confusion matrix has %d rows", ErrMalformedReport, len(rows))
	}

	for i, r := range rows {
		cells := strings.Fields(strings.Trim(strings.TrimSpace(r), "[]"))
		if len(cells) != 2 {
			return c, fmt.Errorf("%w: confusion row %q", ErrMalformedReport, r)
		}
		for j, cell := range cells {
			v, err := strconv.Atoi(cell)
			if err != nil {
				return c, fmt.Errorf("%w: confusion cell %q", ErrMalformedReport, cell)
			}
			c[i][j] = v
		}
	}
	return c, nil
}
