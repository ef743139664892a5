package ml

import (
	"errors"
	"math"
	"testing"
)

func TestStandardScalerTransform(t *testing.T) {
	mean := make([]float64, FeatureCount)
	scale := make([]float64, FeatureCount)
	for i := range mean {
		mean[i] = float64(i)
		scale[i] = 2
	}
	scale[3] = 0

	scaler, err := NewStandardScaler(mean, scale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	input := make([]float64, FeatureCount)
	for i := range input {
		input[i] = float64(i) + 4
	}
	scaled, err := scaler.Transform(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range scaled {
		want := 2.0
		if i == 3 {
			want = 4
		}
		if math.Abs(v-want) > 1e-12 {
			t.Fatalf("position %d: expected %v, got %v", i, want, v)
		}
	}
	if input[0] != 4 {
		t.Fatal("input vector was modified")
	}

	if _, err := scaler.Transform(input[:5]); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
}

func TestNewStandardScalerRejectsBadShapes(t *testing.T) {
	if _, err := NewStandardScaler([]float64{1}, []float64{1}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
	scale := make([]float64, FeatureCount)
	scale[2] = -1
	if _, err := NewStandardScaler(make([]float64, FeatureCount), scale); err == nil {
		t.Fatal("expected error for negative scale")
	}
}

func TestMinMaxScalerTransform(t *testing.T) {
	mins := make([]float64, FeatureCount)
	maxs := make([]float64, FeatureCount)
	for i := range maxs {
		maxs[i] = 10
	}
	maxs[5] = 0

	scaler, err := NewMinMaxScaler(mins, maxs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	input := make([]float64, FeatureCount)
	for i := range input {
		input[i] = 5
	}
	scaled, err := scaler.Transform(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range scaled {
		want := 0.5
		if i == 5 {
			want = 0
		}
		if v != want {
			t.Fatalf("position %d: expected %v, got %v", i, want, v)
		}
	}
}

func TestNormalizeVectorLengthMismatch(t *testing.T) {
	if _, err := NormalizeVector([]float64{1, 2}, []float64{0}, []float64{1, 1}); err == nil {
		t.Fatal("expected length mismatch error")
	}
}
