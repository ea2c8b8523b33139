// Package artifacts persists and retrieves the model bundle: the fitted
// classifier, the fitted scaler, the ordered feature columns, and the
// analysis report. Stores write and read the four files as a unit.
package artifacts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/churn/pkg/classifier"
	"github.com/JaimeStill/churn/pkg/preprocessing"
)

// Bundle file names.
const (
	ModelFile    = "churn_model.json"
	ScalerFile   = "churn_scaler.json"
	ColumnsFile  = "churn_feature_columns.json"
	ResultsFile  = "churn_analysis_results.txt"
	jsonMimeType = "application/json"
	textMimeType = "text/plain; charset=utf-8"
)

// Files lists the bundle files in write order.
var Files = []string{ModelFile, ScalerFile, ColumnsFile, ResultsFile}

// Bundle is the unit persisted by a training run and consumed by prediction.
type Bundle struct {
	Model          classifier.Classifier
	Scaler         *preprocessing.StandardScaler
	FeatureColumns []string
	Report         string
}

// Store saves and loads a complete bundle.
type Store interface {
	// Save replaces the stored bundle. A failed save leaves the previous bundle readable.
	Save(ctx context.Context, b *Bundle) error
	// Load returns the stored bundle, or ErrNotFound when any file is missing.
	Load(ctx context.Context) (*Bundle, error)
}

func encode(b *Bundle) (map[string][]byte, error) {
	if b.Model == nil || b.Scaler == nil || len(b.FeatureColumns) == 0 {
		return nil, fmt.Errorf("%w: incomplete bundle", ErrCorruptBundle)
	}

	model, err := classifier.Marshal(b.Model)
	if err != nil {
		return nil, err
	}

	scaler, err := json.Marshal(b.Scaler)
	if err != nil {
		return nil, fmt.Errorf("encode scaler: %w", err)
	}

	columns, err := json.Marshal(b.FeatureColumns)
	if err != nil {
		return nil, fmt.Errorf("encode feature columns: %w", err)
	}

	return map[string][]byte{
		ModelFile:   model,
		ScalerFile:  scaler,
		ColumnsFile: columns,
		ResultsFile: []byte(b.Report),
	}, nil
}

func decode(files map[string][]byte) (*Bundle, error) {
	model, err := classifier.Unmarshal(files[ModelFile])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptBundle, ModelFile, err)
	}

	var scaler preprocessing.StandardScaler
	if err := json.Unmarshal(files[ScalerFile], &scaler); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptBundle, ScalerFile, err)
	}

	var columns []string
	if err := json.Unmarshal(files[ColumnsFile], &columns); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptBundle, ColumnsFile, err)
	}
	if len(columns) == 0 || len(columns) != len(scaler.Mean) {
		return nil, fmt.Errorf("%w: %d feature columns for %d scaler means", ErrCorruptBundle, len(columns), len(scaler.Mean))
	}

	return &Bundle{
		Model:          model,
		Scaler:         &scaler,
		FeatureColumns: columns,
		Report:         string(files[ResultsFile]),
	}, nil
}

func contentType(name string) string {
	if name == ResultsFile {
		return textMimeType
	}
	return jsonMimeType
}
