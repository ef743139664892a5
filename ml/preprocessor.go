package ml

import (
	"errors"
	"fmt"
)

// StandardScaler standardizes each column as (x - mean) / scale.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) != FeatureCount || len(scale) != FeatureCount {
		return nil, fmt.Errorf("%w: mean=%d scale=%d, want %d", ErrDimensionMismatch, len(mean), len(scale), FeatureCount)
	}
	s := &StandardScaler{
		Mean:  append([]float64(nil), mean...),
		Scale: make([]float64, len(scale)),
	}
	for i, v := range scale {
		if v < 0 {
			return nil, fmt.Errorf("negative scale for %s", featureNames[i])
		}
		// constant columns are left centred but unscaled
		if v == 0 {
			v = 1
		}
		s.Scale[i] = v
	}
	return s, nil
}

func (s *StandardScaler) Transform(features []float64) ([]float64, error) {
	if len(features) != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(features), len(s.Mean))
	}
	result := make([]float64, len(features))
	for i, value := range features {
		result[i] = (value - s.Mean[i]) / s.Scale[i]
	}
	return result, nil
}

// MinMaxScaler maps each column onto [0, 1] using the fitted bounds.
type MinMaxScaler struct {
	Min []float64
	Max []float64
}

func NewMinMaxScaler(mins, maxs []float64) (*MinMaxScaler, error) {
	if len(mins) != FeatureCount || len(maxs) != FeatureCount {
		return nil, fmt.Errorf("%w: min=%d max=%d, want %d", ErrDimensionMismatch, len(mins), len(maxs), FeatureCount)
	}
	for i := range mins {
		if maxs[i] < mins[i] {
			return nil, fmt.Errorf("max below min for %s", featureNames[i])
		}
	}
	return &MinMaxScaler{
		Min: append([]float64(nil), mins...),
		Max: append([]float64(nil), maxs...),
	}, nil
}

func (s *MinMaxScaler) Transform(features []float64) ([]float64, error) {
	if len(features) != len(s.Min) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(features), len(s.Min))
	}
	return NormalizeVector(features, s.Min, s.Max)
}

func NormalizeFeature(value, min, max float64) float64 {
	if max == min {
		return 0
	}
	return (value - min) / (max - min)
}

func NormalizeVector(values []float64, mins []float64, maxs []float64) ([]float64, error) {
	if len(values) != len(mins) || len(values) != len(maxs) {
		return nil, errors.New("values/mins/maxs length mismatch")
	}
	result := make([]float64, len(values))
	for i := range values {
		result[i] = NormalizeFeature(values[i], mins[i], maxs[i])
	}
	return result, nil
}
