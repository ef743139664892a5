package ml

import "fmt"

// FeatureCount is the dimensionality every artifact is fitted on.
const FeatureCount = 11

var featureNames = [FeatureCount]string{
	"fixed_acidity",
	"volatile_acidity",
	"citric_acid",
	"residual_sugar",
	"chlorides",
	"free_sulfur_dioxide",
	"total_sulfur_dioxide",
	"density",
	"pH",
	"sulphates",
	"alcohol",
}

// WineSample holds the physico-chemical measurements of one wine.
type WineSample struct {
	FixedAcidity       float64 `json:"fixed_acidity" yaml:"fixed_acidity"`
	VolatileAcidity    float64 `json:"volatile_acidity" yaml:"volatile_acidity"`
	CitricAcid         float64 `json:"citric_acid" yaml:"citric_acid"`
	ResidualSugar      float64 `json:"residual_sugar" yaml:"residual_sugar"`
	Chlorides          float64 `json:"chlorides" yaml:"chlorides"`
	FreeSulfurDioxide  float64 `json:"free_sulfur_dioxide" yaml:"free_sulfur_dioxide"`
	TotalSulfurDioxide float64 `json:"total_sulfur_dioxide" yaml:"total_sulfur_dioxide"`
	Density            float64 `json:"density" yaml:"density"`
	PH                 float64 `json:"pH" yaml:"pH"`
	Sulphates          float64 `json:"sulphates" yaml:"sulphates"`
	Alcohol            float64 `json:"alcohol" yaml:"alcohol"`
}

// FeatureVector projects a sample onto the column order of FeatureNames.
func FeatureVector(sample WineSample) []float64 {
	return []float64{
		sample.FixedAcidity,
		sample.VolatileAcidity,
		sample.CitricAcid,
		sample.ResidualSugar,
		sample.Chlorides,
		sample.FreeSulfurDioxide,
		sample.TotalSulfurDioxide,
		sample.Density,
		sample.PH,
		sample.Sulphates,
		sample.Alcohol,
	}
}

// FeatureMap returns the sample keyed by feature name.
func FeatureMap(sample WineSample) map[string]float64 {
	vector := FeatureVector(sample)
	values := make(map[string]float64, FeatureCount)
	for i, name := range featureNames {
		values[name] = vector[i]
	}
	return values
}

// FeatureNames returns the schema in the order the artifacts were fitted on.
func FeatureNames() []string {
	names := make([]string, FeatureCount)
	copy(names, featureNames[:])
	return names
}

func checkFeatureNames(names []string) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) != FeatureCount {
		return fmt.Errorf("%w: artifact declares %d features, want %d", ErrDimensionMismatch, len(names), FeatureCount)
	}
	for i, name := range names {
		if name != featureNames[i] {
			return fmt.Errorf("feature %d is %q, want %q", i, name, featureNames[i])
		}
	}
	return nil
}
