package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cast"

	"winequality/ml"
)

// Record is a decoded request body keyed by field name. Unknown keys are
// carried along untouched.
type Record map[string]interface{}

// DecodeRecord reads one JSON object, keeping numeric literals as
// json.Number so they echo back exactly as sent.
func DecodeRecord(r io.Reader) (Record, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var record Record
	if err := decoder.Decode(&record); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("request body is empty")
		}
		return nil, err
	}
	if record == nil {
		return nil, errors.New("request body must be a JSON object")
	}
	if decoder.More() {
		return nil, errors.New("request body has trailing data")
	}
	return record, nil
}

// MissingFields returns the schema fields absent from record, in schema order.
func MissingFields(record Record) []string {
	var missing []string
	for _, name := range ml.FeatureNames() {
		if _, ok := record[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Assemble converts every schema field of a complete record to float64 and
// lays them out in schema order. All unconvertible fields are reported
// together.
func Assemble(record Record) ([]float64, error) {
	names := ml.FeatureNames()
	vector := make([]float64, len(names))

	var (
		bad  []string
		errs []error
	)
	for i, name := range names {
		value, err := toFloat(record[name])
		if err != nil {
			bad = append(bad, name)
			errs = append(errs, &FieldError{Field: name, Err: err})
			continue
		}
		vector[i] = value
	}
	if len(errs) > 0 {
		return nil, &ProcessingError{Kind: KindCoercion, Fields: bad, Err: errors.Join(errs...)}
	}
	return vector, nil
}

// toFloat accepts whatever cast reads as a float64: JSON numbers, Go numeric
// kinds, booleans (1 and 0) and numeric strings, which are trimmed first.
// Null and non-finite results are rejected.
func toFloat(value interface{}) (float64, error) {
	if value == nil {
		return 0, errors.New("value is null")
	}
	if s, ok := value.(string); ok {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return 0, errors.New("value is an empty string")
		}
		f, err := cast.ToFloat64E(trimmed)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", s)
		}
		value = f
	}

	f, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("value is not finite")
	}
	return f, nil
}
