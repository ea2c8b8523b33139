// Package predictor scores single customers with a persisted model bundle.
package predictor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/JaimeStill/churn/internal/artifacts"
	"github.com/JaimeStill/churn/pkg/classifier"
	"github.com/JaimeStill/churn/pkg/preprocessing"
)

// Predictor aligns raw feature rows to the persisted column order, scales
// them with the training scaler, and returns the churn probability.
type Predictor struct {
	model   classifier.Classifier
	scaler  *preprocessing.StandardScaler
	columns []string
}

// New validates that the bundle parts agree and builds a predictor.
func New(b *artifacts.Bundle) (*Predictor, error) {
	if b == nil || b.Model == nil || b.Scaler == nil {
		return nil, fmt.Errorf("%w: incomplete bundle", ErrInvalidBundle)
	}
	if len(b.FeatureColumns) == 0 || len(b.FeatureColumns) != len(b.Scaler.Mean) {
		return nil, fmt.Errorf("%w: %d feature columns for %d scaler means",
			ErrInvalidBundle, len(b.FeatureColumns), len(b.Scaler.Mean))
	}

	return &Predictor{
		model:   b.Model,
		scaler:  b.Scaler,
		columns: append([]string(nil), b.FeatureColumns...),
	}, nil
}

// Columns returns the feature columns in model order.
func (p *Predictor) Columns() []string {
	return append([]string(nil), p.columns...)
}

// Predict returns P(churn=1) for one customer. Keys not in the model are
// ignored. Every model column must be present and finite.
func (p *Predictor) Predict(row map[string]float64) (float64, error) {
	values := make([]float64, len(p.columns))
	var missing []string

	for j, name := range p.columns {
		v, ok := row[name]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			missing = append(missing, name)
			continue
		}
		values[j] = v
	}
	if len(missing) > 0 {
		return 0, &MissingFeatureError{Columns: missing}
	}

	scaled, err := p.scaler.TransformRow(values)
	if err != nil {
		return 0, fmt.Errorf("scale input: %w", err)
	}

	proba := p.model.PredictProba(mat.NewDense(1, len(scaled), scaled))
	return proba[0], nil
}
