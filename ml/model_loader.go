package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

type scalerFile struct {
	Type         string    `json:"type"`
	FeatureNames []string  `json:"feature_names"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
	Min          []float64 `json:"min"`
	Max          []float64 `json:"max"`
}

type classifierFile struct {
	Type         string     `json:"type"`
	FeatureNames []string   `json:"feature_names"`
	Coef         []float64  `json:"coef"`
	Intercept    float64    `json:"intercept"`
	Nodes        []TreeNode `json:"nodes"`
}

func LoadScaler(path string) (Scaler, error) {
	var file scalerFile
	if err := readArtifact(path, &file); err != nil {
		return nil, err
	}
	if err := checkFeatureNames(file.FeatureNames); err != nil {
		return nil, fmt.Errorf("scaler %s: %w", path, err)
	}
	var (
		scaler Scaler
		err    error
	)
	switch file.Type {
	case "standard", "":
		scaler, err = NewStandardScaler(file.Mean, file.Scale)
	case "minmax":
		scaler, err = NewMinMaxScaler(file.Min, file.Max)
	default:
		return nil, fmt.Errorf("scaler %s: unsupported type %q", path, file.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("scaler %s: %w", path, err)
	}
	return scaler, nil
}

func LoadClassifier(path string) (Classifier, error) {
	var file classifierFile
	if err := readArtifact(path, &file); err != nil {
		return nil, err
	}
	if err := checkFeatureNames(file.FeatureNames); err != nil {
		return nil, fmt.Errorf("classifier %s: %w", path, err)
	}
	var (
		model Classifier
		err   error
	)
	switch file.Type {
	case "logistic_regression":
		model, err = NewLogisticRegression(file.Coef, file.Intercept)
	case "decision_tree":
		model, err = NewDecisionTree(file.Nodes)
	default:
		return nil, fmt.Errorf("classifier %s: unsupported type %q", path, file.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("classifier %s: %w", path, err)
	}
	return model, nil
}

// Artifacts is the pair loaded at startup. Either field is nil when its
// file failed to load.
type Artifacts struct {
	Scaler     Scaler
	Classifier Classifier
}

func (a *Artifacts) ScalerLoaded() bool {
	return a != nil && a.Scaler != nil
}

func (a *Artifacts) ClassifierLoaded() bool {
	return a != nil && a.Classifier != nil
}

func (a *Artifacts) Ready() bool {
	return a.ScalerLoaded() && a.ClassifierLoaded()
}

// LoadArtifacts loads both files and always returns a non-nil *Artifacts so
// callers can report which half is missing.
func LoadArtifacts(scalerPath, modelPath string) (*Artifacts, error) {
	artifacts := &Artifacts{}
	var errs []error

	scaler, err := LoadScaler(scalerPath)
	if err != nil {
		errs = append(errs, err)
	} else {
		artifacts.Scaler = scaler
	}

	model, err := LoadClassifier(modelPath)
	if err != nil {
		errs = append(errs, err)
	} else {
		artifacts.Classifier = model
	}

	return artifacts, errors.Join(errs...)
}

func readArtifact(path string, v interface{}) error {
	if path == "" {
		return errors.New("artifact path is empty")
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return nil
}
