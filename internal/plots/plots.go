// Package plots renders evaluation charts as PNG files: confusion matrix,
// ROC curve, precision-recall curve, and top feature importances.
package plots

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/JaimeStill/churn/internal/evaluation"
	"github.com/JaimeStill/churn/pkg/formatting"
	"github.com/JaimeStill/churn/pkg/metrics"
)

// Output file names.
const (
	ConfusionFile  = "confusion_matrix.png"
	ROCFile        = "roc_curve.png"
	PRFile         = "precision_recall_curve.png"
	ImportanceFile = "feature_importance.png"
)

// TopFeatures bounds the importance chart.
const TopFeatures = 10

const (
	width  = 6 * vg.Inch
	height = 5 * vg.Inch
)

// Write renders every chart m supports into dir and returns the written paths.
// Curves are skipped when undefined and the importance chart when the model
// has no importances.
func Write(dir string, m *evaluation.Metrics) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create plots directory: %w", err)
	}

	var written []string
	save := func(name string, p *plot.Plot) error {
		target := filepath.Join(dir, name)
		if err := p.Save(width, height, target); err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
		written = append(written, target)
		return nil
	}

	p, err := confusionPlot(m.Confusion)
	if err != nil {
		return written, err
	}
	if err := save(ConfusionFile, p); err != nil {
		return written, err
	}

	if m.ROC != nil {
		p, err := curvePlot(
			"Curva ROC (AUC="+formatting.Fixed(m.AUCROC, 4)+")",
			"Taxa de falsos positivos", "Taxa de verdadeiros positivos",
			*m.ROC, true,
		)
		if err != nil {
			return written, err
		}
		if err := save(ROCFile, p); err != nil {
			return written, err
		}
	}

	if m.PrecisionRecall != nil {
		p, err := curvePlot(
			"Curva Precision-Recall (APS="+formatting.Fixed(m.AveragePrecision, 4)+")",
			"Recall", "Precision",
			*m.PrecisionRecall, false,
		)
		if err != nil {
			return written, err
		}
		if err := save(PRFile, p); err != nil {
			return written, err
		}
	}

	if len(m.Importances) > 0 {
		p, err := importancePlot(m.Importances)
		if err != nil {
			return written, err
		}
		if err := save(ImportanceFile, p); err != nil {
			return written, err
		}
	}

	return written, nil
}

func curvePlot(title, xLabel, yLabel string, c metrics.Curve, diagonal bool) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1.05
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(c.X))
	for i := range c.X {
		pts[i].X = c.X[i]
		pts[i].Y = c.Y[i]
	}

	if err := plotutil.AddLinePoints(p, "Modelo", pts); err != nil {
		return nil, fmt.Errorf("plot curve: %w", err)
	}

	if diagonal {
		ref := plotter.NewFunction(func(x float64) float64 { return x })
		ref.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(ref)
		p.Legend.Add("Aleatório", ref)
	}
	return p, nil
}

func importancePlot(importances []evaluation.Importance) (*plot.Plot, error) {
	top := importances[:min(TopFeatures, len(importances))]

	// Bars are drawn bottom-up, so the largest importance goes last.
	values := make(plotter.Values, len(top))
	names := make([]string, len(top))
	for i, imp := range top {
		k := len(top) - 1 - i
		values[k] = imp.Value
		names[k] = imp.Display
	}

	p := plot.New()
	p.Title.Text = "Top " + strconv.Itoa(len(top)) + " Features por Importância"
	p.X.Label.Text = "Importância"

	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return nil, fmt.Errorf("plot importances: %w", err)
	}
	bars.Horizontal = true
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalY(names...)
	return p, nil
}

// confusionGrid lays the matrix out with predicted class on X and true class
// on Y, class 0 on top.
type confusionGrid metrics.Confusion

func (g confusionGrid) Dims() (c, r int) { return 2, 2 }
func (g confusionGrid) X(c int) float64 { return float64(c) }
func (g confusionGrid) Y(r int) float64 { return float64(r) }
func (g confusionGrid) Z(c, r int) float64 { return float64(g[1-r][c]) }

func confusionPlot(c metrics.Confusion) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Matriz de Confusão"
	p.X.Label.Text = "Valor Previsto"
	p.Y.Label.Text = "Valor Real"

	grid := confusionGrid(c)
	heat := plotter.NewHeatMap(grid, palette.Heat(16, 1))
	if heat.Min == heat.Max {
		heat.Max = heat.Min + 1
	}
	p.Add(heat)

	var labels plotter.XYLabels
	for r := range 2 {
		for col := range 2 {
			labels.XYs = append(labels.XYs, plotter.XY{X: grid.X(col), Y: grid.Y(r)})
			labels.Labels = append(labels.Labels, strconv.Itoa(int(grid.Z(col, r))))
		}
	}
	text, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, fmt.Errorf("plot confusion labels: %w", err)
	}
	p.Add(text)

	p.NominalX("Não Churn", "Churn")
	p.NominalY("Churn", "Não Churn")
	return p, nil
}
