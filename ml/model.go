package ml

import "errors"

var (
	ErrModelNotLoaded    = errors.New("model not loaded")
	ErrDimensionMismatch = errors.New("feature dimension mismatch")
)

// Scaler is a fitted, stateless transform applied before classification.
type Scaler interface {
	Transform(features []float64) ([]float64, error)
}

// Classifier maps a scaled vector to a label in {0, 1} and the
// probabilities [P(0), P(1)].
type Classifier interface {
	Predict(features []float64) (int, []float64, error)
}

func argmax(probabilities []float64) int {
	best := 0
	for i := 1; i < len(probabilities); i++ {
		if probabilities[i] > probabilities[best] {
			best = i
		}
	}
	return best
}
