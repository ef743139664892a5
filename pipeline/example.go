package pipeline

import "winequality/ml"

// ExampleSample is a known-good input, a typical red wine rated low.
var ExampleSample = ml.WineSample{
	FixedAcidity:       7.4,
	VolatileAcidity:    0.7,
	CitricAcid:         0.0,
	ResidualSugar:      1.9,
	Chlorides:          0.076,
	FreeSulfurDioxide:  11.0,
	TotalSulfurDioxide: 34.0,
	Density:            0.9978,
	PH:                 3.51,
	Sulphates:          0.56,
	Alcohol:            9.4,
}

// ExpectedOutput is what the reference artifacts in models/ produce for
// ExampleSample, rounded to two places.
type ExpectedOutput struct {
	Quality         Quality `json:"quality"`
	ProbabilityLow  float64 `json:"probability_low"`
	ProbabilityHigh float64 `json:"probability_high"`
}

var ExampleOutput = ExpectedOutput{
	Quality:         QualityLow,
	ProbabilityLow:  0.85,
	ProbabilityHigh: 0.15,
}

func ExampleRecord() Record {
	record := make(Record, ml.FeatureCount)
	for name, value := range ml.FeatureMap(ExampleSample) {
		record[name] = value
	}
	return record
}
