package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"winequality/ml"
)

func referenceEnv(t *testing.T) {
	t.Setenv("WINEQUALITY_SCALER_PATH", "../models/scaler.json")
	t.Setenv("WINEQUALITY_MODEL_PATH", "../models/model.json")
	t.Setenv("WINEQUALITY_LOG_LEVEL", "error")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExampleCommand(t *testing.T) {
	referenceEnv(t)
	out, err := run(t, "", "example")
	require.NoError(t, err)

	var payload struct {
		ExampleInput   map[string]float64     `json:"example_input"`
		ExpectedOutput map[string]interface{} `json:"expected_output"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Len(t, payload.ExampleInput, 11)
	assert.Equal(t, "low", payload.ExpectedOutput["quality"])
}

func TestCheckCommand(t *testing.T) {
	referenceEnv(t)
	out, err := run(t, "", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "ok: example predicted low")
}

func TestCheckCommandFailsWithoutArtifacts(t *testing.T) {
	referenceEnv(t)
	t.Setenv("WINEQUALITY_MODEL_PATH", "../models/absent.json")
	_, err := run(t, "", "check")
	assert.Error(t, err)
}

func TestPredictCommand(t *testing.T) {
	referenceEnv(t)
	input := `{"fixed_acidity":7.4,"volatile_acidity":0.7,"citric_acid":0,"residual_sugar":1.9,"chlorides":0.076,"free_sulfur_dioxide":11,"total_sulfur_dioxide":34,"density":0.9978,"pH":3.51,"sulphates":0.56,"alcohol":9.4}`
	out, err := run(t, input, "predict")
	require.NoError(t, err)
	assert.Contains(t, out, `"quality": "low"`)

	_, err = run(t, `{"alcohol":9.4}`, "predict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing fields")

	_, err = run(t, `not json`, "predict")
	assert.Error(t, err)
}

func TestWarnOnArtifactChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	core, logs := observer.New(zap.WarnLevel)
	watcher, err := ml.WatchArtifacts(zap.NewNop(), path)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		warnOnArtifactChange(watcher, zap.New(core))
		close(done)
	}()

	require.NoError(t, os.WriteFile(path, []byte(`{"type":"logistic_regression"}`), 0o600))
	require.Eventually(t, func() bool {
		return logs.FilterMessage("model artifact changed on disk; restart to load it").Len() > 0
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, watcher.Close())
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("warning loop did not stop after Close")
	}
}
