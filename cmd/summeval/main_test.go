package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datar-psa/summeval/accuracy"
)

func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		embeddings := make([][]float32, len(req.Input))
		for i, text := range req.Input {
			embeddings[i] = []float32{float32(len(text)), 1}
		}
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings}))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEvaluate_Text(t *testing.T) {
	srv := fakeOllama(t)
	t.Setenv("SUMMEVAL_CONFIG", "")
	t.Setenv("SUMMEVAL_EMBEDDING__OLLAMA_HOST", srv.URL)
	t.Setenv("SUMMEVAL_LOG_LEVEL", "error")

	out, err := run(t, "evaluate", "-g", "The cat sat on the mat.", "-r", "The cat sat on the mat.")
	require.NoError(t, err)

	assert.Contains(t, out, "Evaluation Results")
	assert.Contains(t, out, "ROUGE-1 Score  1.0000")
	assert.Contains(t, out, "BLEU Score")
	assert.Contains(t, out, "Accuracy evaluation complete!")
}

func TestEvaluate_JSONFromFiles(t *testing.T) {
	srv := fakeOllama(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "summeval.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_level: error\nembedding:\n  ollama_host: "+srv.URL+"\n"), 0o600))
	generated := filepath.Join(dir, "generated.txt")
	reference := filepath.Join(dir, "reference.txt")
	require.NoError(t, os.WriteFile(generated, []byte("Quantum entanglement defies locality."), 0o600))
	require.NoError(t, os.WriteFile(reference, []byte("The cat sat on the mat."), 0o600))
	t.Setenv("SUMMEVAL_CONFIG", "")

	out, err := run(t, "--config", cfgPath, "evaluate", "--generated-file", generated, "--reference-file", reference, "--json")
	require.NoError(t, err)

	var metrics accuracy.Metrics
	require.NoError(t, json.Unmarshal([]byte(out), &metrics))
	require.Len(t, metrics, 5)
	assert.Equal(t, 0.0, metrics.Map()[accuracy.MetricRouge1])
	assert.Equal(t, 0.0, metrics.Map()[accuracy.MetricBleu])
}

func TestEvaluate_EmptyInput(t *testing.T) {
	_, err := run(t, "evaluate", "-g", " ", "-r", "reference")
	assert.EqualError(t, err, "Please enter both generated and reference summaries.")
}

func TestEvaluate_BackendDown(t *testing.T) {
	srv := fakeOllama(t)
	srv.Close()
	t.Setenv("SUMMEVAL_CONFIG", "")
	t.Setenv("SUMMEVAL_EMBEDDING__OLLAMA_HOST", srv.URL)
	t.Setenv("SUMMEVAL_LOG_LEVEL", "error")

	_, err := run(t, "evaluate", "-g", "a", "-r", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Evaluation failed: ")
}

func TestEvaluate_InvalidConfig(t *testing.T) {
	t.Setenv("SUMMEVAL_CONFIG", "")
	t.Setenv("SUMMEVAL_BLEU__SMOOTHING", "method9")

	_, err := run(t, "evaluate", "-g", "a", "-r", "b")
	assert.ErrorContains(t, err, "invalid config")
}
