// Package pipeline turns a raw wine record into a quality prediction:
// presence check, numeric coercion, ordered assembly, scaling, classification.
package pipeline

import (
	"errors"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"winequality/ml"
)

type Quality string

const (
	QualityLow  Quality = "low"
	QualityHigh Quality = "high"
)

// Result is the caller-facing prediction.
type Result struct {
	Quality         Quality `json:"quality"`
	ProbabilityLow  float64 `json:"probability_low"`
	ProbabilityHigh float64 `json:"probability_high"`
	Confidence      float64 `json:"confidence"`
	InputFeatures   Record  `json:"input_features"`
}

const probabilityTolerance = 1e-6

type vectorKey [ml.FeatureCount]uint64

type classification struct {
	label         int
	probabilities [2]float64
}

// Pipeline holds the read-only artifacts shared by every prediction.
type Pipeline struct {
	scaler     ml.Scaler
	classifier ml.Classifier
	cache      *lru.Cache[vectorKey, classification]
}

type Option func(*Pipeline) error

// WithCache memoizes classifications of identical raw vectors. size <= 0
// leaves caching off.
func WithCache(size int) Option {
	return func(p *Pipeline) error {
		if size <= 0 {
			return nil
		}
		cache, err := lru.New[vectorKey, classification](size)
		if err != nil {
			return fmt.Errorf("create prediction cache: %w", err)
		}
		p.cache = cache
		return nil
	}
}

// New builds a pipeline. Nil artifacts are allowed; Predict then fails with
// ml.ErrModelNotLoaded once the input has been validated.
func New(scaler ml.Scaler, classifier ml.Classifier, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{scaler: scaler, classifier: classifier}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// FromArtifacts builds a pipeline over whatever part of artifacts loaded.
func FromArtifacts(artifacts *ml.Artifacts, opts ...Option) (*Pipeline, error) {
	if artifacts == nil {
		return New(nil, nil, opts...)
	}
	return New(artifacts.Scaler, artifacts.Classifier, opts...)
}

func (p *Pipeline) Ready() bool {
	return p.ScalerLoaded() && p.ClassifierLoaded()
}

func (p *Pipeline) ScalerLoaded() bool {
	return p.scaler != nil
}

func (p *Pipeline) ClassifierLoaded() bool {
	return p.classifier != nil
}

// CacheLen reports the number of memoized classifications.
func (p *Pipeline) CacheLen() int {
	if p.cache == nil {
		return 0
	}
	return p.cache.Len()
}

// Predict runs one record through the pipeline. Errors are either
// *ValidationError or *ProcessingError.
func (p *Pipeline) Predict(record Record) (*Result, error) {
	if missing := MissingFields(record); len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	vector, err := Assemble(record)
	if err != nil {
		return nil, err
	}

	if !p.Ready() {
		return nil, &ProcessingError{Kind: KindModel, Err: ml.ErrModelNotLoaded}
	}

	c, err := p.classify(vector)
	if err != nil {
		return nil, err
	}

	quality := QualityLow
	if c.label == 1 {
		quality = QualityHigh
	}

	echo := make(Record, len(record))
	for k, v := range record {
		echo[k] = v
	}

	return &Result{
		Quality:         quality,
		ProbabilityLow:  c.probabilities[0],
		ProbabilityHigh: c.probabilities[1],
		Confidence:      math.Max(c.probabilities[0], c.probabilities[1]),
		InputFeatures:   echo,
	}, nil
}

func (p *Pipeline) classify(vector []float64) (classification, error) {
	var key vectorKey
	if p.cache != nil {
		for i, v := range vector {
			key[i] = math.Float64bits(v)
		}
		if c, ok := p.cache.Get(key); ok {
			return c, nil
		}
	}

	scaled, err := p.scaler.Transform(vector)
	if err != nil {
		return classification{}, &ProcessingError{Kind: KindScaling, Err: err}
	}
	if len(scaled) != len(vector) {
		return classification{}, &ProcessingError{
			Kind: KindScaling,
			Err:  fmt.Errorf("%w: scaler returned %d values, want %d", ml.ErrDimensionMismatch, len(scaled), len(vector)),
		}
	}

	label, probabilities, err := p.classifier.Predict(scaled)
	if err != nil {
		return classification{}, &ProcessingError{Kind: KindClassification, Err: err}
	}
	if err := checkOutput(label, probabilities); err != nil {
		return classification{}, &ProcessingError{Kind: KindClassification, Err: err}
	}

	c := classification{label: label, probabilities: [2]float64{probabilities[0], probabilities[1]}}
	if p.cache != nil {
		p.cache.Add(key, c)
	}
	return c, nil
}

func checkOutput(label int, probabilities []float64) error {
	if label != 0 && label != 1 {
		return fmt.Errorf("classifier returned label %d", label)
	}
	if len(probabilities) != 2 {
		return fmt.Errorf("classifier returned %d probabilities, want 2", len(probabilities))
	}
	for _, prob := range probabilities {
		if math.IsNaN(prob) || prob < 0 || prob > 1 {
			return errors.New("classifier returned a probability outside [0, 1]")
		}
	}
	if math.Abs(probabilities[0]+probabilities[1]-1) > probabilityTolerance {
		return errors.New("classifier probabilities do not sum to 1")
	}
	return nil
}
