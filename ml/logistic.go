package ml

import (
	"fmt"
	"math"
)

// LogisticRegression is a fitted binary logistic model.
type LogisticRegression struct {
	Coef      []float64
	Intercept float64
}

func NewLogisticRegression(coef []float64, intercept float64) (*LogisticRegression, error) {
	if len(coef) != FeatureCount {
		return nil, fmt.Errorf("%w: coef=%d, want %d", ErrDimensionMismatch, len(coef), FeatureCount)
	}
	for i, c := range coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("non-finite coefficient for %s", featureNames[i])
		}
	}
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return nil, fmt.Errorf("non-finite intercept")
	}
	return &LogisticRegression{
		Coef:      append([]float64(nil), coef...),
		Intercept: intercept,
	}, nil
}

func (m *LogisticRegression) Predict(features []float64) (int, []float64, error) {
	if len(features) != len(m.Coef) {
		return 0, nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(features), len(m.Coef))
	}
	z := m.Intercept
	for i, x := range features {
		z += m.Coef[i] * x
	}
	high := sigmoid(z)
	probabilities := []float64{1 - high, high}
	return argmax(probabilities), probabilities, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
