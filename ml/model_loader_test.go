package ml

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLoadReferenceArtifacts(t *testing.T) {
	artifacts, err := LoadArtifacts("../models/scaler.json", "../models/model.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !artifacts.Ready() {
		t.Fatal("expected both artifacts loaded")
	}

	example := WineSample{
		FixedAcidity: 7.4, VolatileAcidity: 0.7, CitricAcid: 0, ResidualSugar: 1.9,
		Chlorides: 0.076, FreeSulfurDioxide: 11, TotalSulfurDioxide: 34, Density: 0.9978,
		PH: 3.51, Sulphates: 0.56, Alcohol: 9.4,
	}
	scaled, err := artifacts.Scaler.Transform(FeatureVector(example))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	label, probabilities, err := artifacts.Classifier.Predict(scaled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}
	if math.Abs(probabilities[0]-0.85) > 0.005 {
		t.Fatalf("expected P(low) near 0.85, got %v", probabilities[0])
	}
}

func TestLoadMinMaxAndTree(t *testing.T) {
	scaler, err := LoadScaler("testdata/minmax_scaler.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := scaler.(*MinMaxScaler); !ok {
		t.Fatalf("expected *MinMaxScaler, got %T", scaler)
	}
	model, err := LoadClassifier("testdata/tree.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tree, ok := model.(*DecisionTree)
	if !ok {
		t.Fatalf("expected *DecisionTree, got %T", model)
	}
	// alcohol > 0.5 and sulphates > 0.2 reach the deepest leaf
	features := make([]float64, FeatureCount)
	features[9], features[10] = 0.3, 0.9
	label, probabilities, err := tree.Predict(features)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 || probabilities[1] != 0.9 {
		t.Fatalf("expected high leaf, got label %d %v", label, probabilities)
	}
}

func TestLoadArtifactErrors(t *testing.T) {
	if _, err := LoadClassifier("testdata/wrong_order.json"); err == nil {
		t.Fatal("expected error for reordered feature names")
	}
	if _, err := LoadScaler("testdata/short_scaler.json"); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
	if _, err := LoadClassifier("testdata/unknown_model.json"); err == nil {
		t.Fatal("expected error for unsupported type")
	}
	if _, err := LoadScaler("testdata/corrupt.json"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := LoadScaler(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestLoadArtifactsPartialFailure(t *testing.T) {
	artifacts, err := LoadArtifacts("../models/scaler.json", "testdata/missing.json")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if !artifacts.ScalerLoaded() {
		t.Fatal("scaler should still be loaded")
	}
	if artifacts.ClassifierLoaded() || artifacts.Ready() {
		t.Fatal("classifier should be reported missing")
	}

	var nilArtifacts *Artifacts
	if nilArtifacts.Ready() {
		t.Fatal("nil artifacts must not be ready")
	}
}

func TestArtifactWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}
	other := filepath.Join(dir, "notes.txt")

	watcher, err := WatchArtifacts(zap.NewNop(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer watcher.Close()

	if err := os.WriteFile(other, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"type":"decision_tree"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case changed := <-watcher.Changes():
		want, _ := filepath.Abs(path)
		if changed != want {
			t.Fatalf("expected %s, got %s", want, changed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	if err := watcher.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for range watcher.Changes() {
	}
}
