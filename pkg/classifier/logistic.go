package classifier

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Logistic regression penalties.
const (
	PenaltyL2   = "l2"
	PenaltyNone = "none"
)

// Logistic is a logistic regression minimising
// 0.5*||beta||^2 + C * sum(w_i * logloss_i) (the penalty term is dropped for
// PenaltyNone) with L-BFGS. The intercept is not penalised.
type Logistic struct {
	Params       Params      `json:"params"`
	ClassWeight  ClassWeight `json:"class_weight"`
	Coefficients []float64   `json:"coefficients"`
	Intercept    float64     `json:"intercept"`
}

func (l *Logistic) Family() Family { return LogisticRegression }

func (l *Logistic) Fit(x mat.Matrix, y []int) error {
	if err := checkTraining(x, y); err != nil {
		return err
	}

	rows, _ := rowsOf(x)
	_, nFeatures := x.Dims()
	w := l.ClassWeight.SampleWeights(y)
	penalty := 1.0
	if l.Params.Penalty == PenaltyNone {
		penalty = 0
	}
	c := l.Params.C

	// params holds the coefficients followed by the intercept.
	margin := func(params, row []float64) float64 {
		return floats.Dot(params[:nFeatures], row) + params[nFeatures]
	}

	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			var loss float64
			for i, row := range rows {
				z := margin(params, row)
				loss += w[i] * (softplus(z) - float64(y[i])*z)
			}
			coef := params[:nFeatures]
			return 0.5*penalty*floats.Dot(coef, coef) + c*loss
		},
		Grad: func(grad, params []float64) {
			for j := range grad {
				grad[j] = 0
			}
			for i, row := range rows {
				r := c * w[i] * (sigmoid(margin(params, row)) - float64(y[i]))
				floats.AddScaled(grad[:nFeatures], r, row)
				grad[nFeatures] += r
			}
			floats.AddScaled(grad[:nFeatures], penalty, params[:nFeatures])
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: 1e-6,
		MajorIterations:   l.Params.MaxIter,
	}

	init := make([]float64, nFeatures+1)
	result, err := optimize.Minimize(problem, init, settings, &optimize.LBFGS{})
	if result == nil {
		return fmt.Errorf("fit logistic regression: %w", err)
	}
	if err != nil && !acceptable(result.X) {
		return fmt.Errorf("fit logistic regression: %w", err)
	}
	if !acceptable(result.X) {
		return fmt.Errorf("fit logistic regression: %w", errors.New("non-finite coefficients"))
	}

	l.Coefficients = append([]float64(nil), result.X[:nFeatures]...)
	l.Intercept = result.X[nFeatures]
	return nil
}

func (l *Logistic) PredictProba(x mat.Matrix) []float64 {
	rows, _ := rowsOf(x)
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = sigmoid(floats.Dot(l.Coefficients, row) + l.Intercept)
	}
	return out
}

func (l *Logistic) Predict(x mat.Matrix) []int {
	return threshold(l.PredictProba(x))
}

// softplus returns log(1 + e^z) without overflow.
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

func acceptable(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
