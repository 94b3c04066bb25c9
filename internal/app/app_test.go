package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gridsweep/internal/registry"
	"github.com/vk/gridsweep/internal/yamlconf"
)

// writeDocument drops a small YAML experiment into a temp dir.
func writeDocument(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func sampleYAML(outputDir string) string {
	return `
classes:
  env:
    grid:
      item_id: gridworld
      config:
        width: 3
        height: 3
  policy:
    explore:
      item_id: eps-greedy
  agent:
    ql:
      item_id: q-learning
run:
  episodes: 3
  max_steps: 30
nb_runs: 2
nb_jobs: 2
output_dir: ` + outputDir + `
experiment_cls: "plugins/rlexp:rl"
`
}

func newTestApp(t *testing.T, doc string, appCfg *Config) (*App, error) {
	t.Helper()
	appCfg.ConfigPath = writeDocument(t, doc)
	appCfg.LogLevel = "error"
	var out bytes.Buffer
	return New(context.Background(), &out, appCfg, yamlconf.NewLoader())
}

func TestNewAppliesOverrides(t *testing.T) {
	override := filepath.Join(t.TempDir(), "elsewhere")
	a, err := newTestApp(t, sampleYAML("ignored"), &Config{
		Jobs:      8,
		Runs:      7,
		OutputDir: override,
	})
	require.NoError(t, err)

	assert.Equal(t, 8, a.Experiment().NbJobs)
	assert.Equal(t, 7, a.Experiment().NbRuns)
	assert.Equal(t, override, a.Experiment().OutputDir)
}

func TestRunEndToEnd(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "results")
	a, err := newTestApp(t, sampleYAML(outputDir), &Config{})
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))

	// 1x1x1 combinations, 2 runs.
	for _, dir := range []string{"gridworld/eps-greedy/q-learning/0", "gridworld/eps-greedy/q-learning/1"} {
		_, err := os.Stat(filepath.Join(outputDir, dir, "returns.json"))
		assert.NoError(t, err, dir)
	}
}

func TestRunRejectsUnknownItem(t *testing.T) {
	doc := `
classes:
  env:
    grid:
      item_id: no-such-env
run:
  episodes: 1
nb_runs: 1
nb_jobs: 1
output_dir: ` + filepath.Join(t.TempDir(), "out") + `
experiment_cls: "plugins/rlexp:rl"
`
	a, err := newTestApp(t, doc, &Config{})
	require.NoError(t, err)

	err = a.Run(context.Background())
	var lookupErr *registry.LookupError
	require.ErrorAs(t, err, &lookupErr)
}

func TestRunRegistersVariantEntryPoint(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "results")
	doc := `
classes:
  env:
    custom:
      item_id: my-bandit
      entry_point: "plugins/env:bandit"
      config:
        arms: 3
  policy:
    explore:
      item_id: eps-greedy
  agent:
    ql:
      item_id: q-learning
run:
  episodes: 2
nb_runs: 1
nb_jobs: 1
output_dir: ` + outputDir + `
experiment_cls: "plugins/rlexp:rl"
`
	a, err := newTestApp(t, doc, &Config{})
	require.NoError(t, err)
	require.NoError(t, a.Run(context.Background()))

	reg, err := a.Set().Category("env")
	require.NoError(t, err)
	assert.True(t, reg.Has("my-bandit"))

	_, err = os.Stat(filepath.Join(outputDir, "my-bandit/eps-greedy/q-learning/0", "returns.json"))
	assert.NoError(t, err)
}

func TestRunUnknownExperimentCls(t *testing.T) {
	doc := `
classes:
  env:
    grid:
      item_id: gridworld
run:
  episodes: 1
nb_runs: 1
nb_jobs: 1
output_dir: ` + filepath.Join(t.TempDir(), "out") + `
experiment_cls: "plugins/nowhere:missing"
`
	a, err := newTestApp(t, doc, &Config{})
	require.NoError(t, err)

	err = a.Run(context.Background())
	var loadErr *registry.LoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestStatusHandler(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "results")
	a, err := newTestApp(t, sampleYAML(outputDir), &Config{})
	require.NoError(t, err)

	// Before any run the handler reports unavailability.
	rec := httptest.NewRecorder()
	a.statusHandler(rec, httptest.NewRequest("GET", "/status", nil))
	assert.Equal(t, 503, rec.Code)

	require.NoError(t, a.Run(context.Background()))

	rec = httptest.NewRecorder()
	a.statusHandler(rec, httptest.NewRequest("GET", "/status", nil))
	require.Equal(t, 200, rec.Code)

	var payload statusPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "completed", payload.State)
	assert.Equal(t, payload.Total, payload.Completed)
	assert.NotEmpty(t, payload.Invocation)
}

func TestHealthHandler(t *testing.T) {
	a, err := newTestApp(t, sampleYAML(filepath.Join(t.TempDir(), "out")), &Config{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.healthHandler(rec, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "OK")
}
