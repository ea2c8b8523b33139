package churn

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Dataset is the labeled training set: one row per customer with both features
// and a label. CustomerIDs[i] identifies row i of X and Y[i]; it never enters X.
type Dataset struct {
	CustomerIDs  []string
	FeatureNames []string
	X            *mat.Dense
	Y            []int

	// Filled counts imputed values per feature column.
	Filled map[string]int
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Y)
}

// ClassCounts returns the number of Retained and Churned rows.
func (d *Dataset) ClassCounts() (retained, churned int) {
	for _, y := range d.Y {
		if y == Churned {
			churned++
		} else {
			retained++
		}
	}
	return retained, churned
}

// ChurnRate returns the share of Churned rows.
func (d *Dataset) ChurnRate() float64 {
	_, churned := d.ClassCounts()
	return float64(churned) / float64(d.Len())
}

// Assemble inner-joins features with labels and fills missing values in a fixed
// order: std_order_value with 0, avg_review with the mean of the observed
// reviews, cancel_rate with 0, then any other column with its mean. A value still
// missing afterwards (a column with no observations) is ErrIncompleteDataset.
func Assemble(features []Features, labels map[string]int) (*Dataset, error) {
	joined := make([]Features, 0, len(features))
	for _, f := range features {
		if _, ok := labels[f.CustomerUniqueID]; ok {
			joined = append(joined, f)
		}
	}
	if len(joined) == 0 {
		return nil, fmt.Errorf("%w: no customer has both features and a label", ErrEmptyDataset)
	}

	slices.SortFunc(joined, func(a, b Features) int {
		return cmp.Compare(a.CustomerUniqueID, b.CustomerUniqueID)
	})

	rows, cols := len(joined), len(FeatureNames)
	x := mat.NewDense(rows, cols, nil)
	ids := make([]string, rows)
	y := make([]int, rows)
	for i, f := range joined {
		x.SetRow(i, f.Vector())
		ids[i] = f.CustomerUniqueID
		y[i] = labels[f.CustomerUniqueID]
	}

	filled := make(map[string]int)
	fills := []struct {
		feature string
		value   func(col []float64) float64
	}{
		{FeatStdOrderValue, func([]float64) float64 { return 0 }},
		{FeatAvgReview, observedMean},
		{FeatCancelRate, func([]float64) float64 { return 0 }},
	}
	for _, fill := range fills {
		j := slices.Index(FeatureNames, fill.feature)
		if n := fillColumn(x, j, fill.value); n > 0 {
			filled[fill.feature] += n
		}
	}
	for j, name := range FeatureNames {
		if n := fillColumn(x, j, observedMean); n > 0 {
			filled[name] += n
		}
	}

	for j, name := range FeatureNames {
		for i := range rows {
			if math.IsNaN(x.At(i, j)) {
				return nil, fmt.Errorf("%w: column %s has no observed values to impute from", ErrIncompleteDataset, name)
			}
		}
	}

	return &Dataset{
		CustomerIDs:  ids,
		FeatureNames: slices.Clone(FeatureNames),
		X:            x,
		Y:            y,
		Filled:       filled,
	}, nil
}

// fillColumn replaces NaN cells in column j with value(col), where value is
// evaluated once over the column as it stands before filling.
func fillColumn(x *mat.Dense, j int, value func(col []float64) float64) int {
	col := mat.Col(nil, j, x)
	missing := 0
	for _, v := range col {
		if math.IsNaN(v) {
			missing++
		}
	}
	if missing == 0 {
		return 0
	}

	fill := value(col)
	if math.IsNaN(fill) {
		return 0
	}
	for i, v := range col {
		if math.IsNaN(v) {
			x.Set(i, j, fill)
		}
	}
	return missing
}

func observedMean(col []float64) float64 {
	observed := make([]float64, 0, len(col))
	for _, v := range col {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	if len(observed) == 0 {
		return math.NaN()
	}
	return stat.Mean(observed, nil)
}

// Correlation is the Pearson correlation of one column with the churn label.
type Correlation struct {
	Feature string
	Value   float64
}

// LabelColumn names the label in correlation rankings.
const LabelColumn = "churn"

// Correlations ranks every feature, and the label itself, by Pearson correlation
// with the label, descending. Undefined correlations (a constant column) sort last.
func Correlations(d *Dataset) []Correlation {
	y := make([]float64, d.Len())
	for i, v := range d.Y {
		y[i] = float64(v)
	}

	result := make([]Correlation, 0, len(d.FeatureNames)+1)
	result = append(result, Correlation{Feature: LabelColumn, Value: pearson(y, y)})
	for j, name := range d.FeatureNames {
		col := mat.Col(nil, j, d.X)
		result = append(result, Correlation{Feature: name, Value: pearson(col, y)})
	}

	slices.SortStableFunc(result, func(a, b Correlation) int {
		an, bn := math.IsNaN(a.Value), math.IsNaN(b.Value)
		switch {
		case an && bn:
			return 0
		case an:
			return 1
		case bn:
			return -1
		}
		return cmp.Compare(b.Value, a.Value)
	})
	return result
}

func pearson(x, y []float64) float64 {
	if stat.StdDev(x, nil) == 0 || stat.StdDev(y, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}
