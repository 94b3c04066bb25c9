package hclconf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gridsweep/internal/ident"
)

const sampleDocument = `
output_dir     = "out/rl"
nb_runs        = 3
nb_jobs        = 2
experiment_cls = "plugins/rlexp:rl"

run {
  time_steps = 1000
  render     = false
}

category "env" {
  variant "small-grid" {
    item_id = "gridworld"
    config  = { size = 4 }
  }
  variant "large-grid" {
    item_id = "gridworld"
    config  = { size = 8, slippery = true }
  }
}

category "agent" {
  variant "ql" {
    item_id = "q-learning"
    config  = { alpha = 0.5 }
  }
}
`

func writeDocument(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "experiment.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	exp, err := NewLoader().Load(context.Background(), writeDocument(t, sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, "out/rl", exp.OutputDir)
	assert.Equal(t, 3, exp.NbRuns)
	assert.Equal(t, 2, exp.NbJobs)
	assert.Equal(t, ident.EntryPointID("plugins/rlexp:rl"), exp.ExperimentCls)
	assert.Equal(t, map[string]any{"time_steps": 1000, "render": false}, exp.Run)

	require.Len(t, exp.Categories, 2)
	assert.Equal(t, ident.CategoryID("env"), exp.Categories[0].ID)
	assert.Equal(t, ident.CategoryID("agent"), exp.Categories[1].ID)

	env := exp.Categories[0]
	require.Len(t, env.Variants, 2)
	assert.Equal(t, "small-grid", env.Variants[0].Name)
	assert.Equal(t, ident.ItemID("gridworld"), env.Variants[0].Item)
	assert.Equal(t, map[string]any{"size": 4}, env.Variants[0].Kwargs)
	assert.Equal(t, map[string]any{"size": 8, "slippery": true}, env.Variants[1].Kwargs)

	assert.Equal(t, 2, exp.Combinations())
}

func TestLoadMissingRequiredKey(t *testing.T) {
	doc := `
output_dir     = "out"
nb_jobs        = 1
experiment_cls = "plugins/rlexp:rl"
category "env" {
  variant "v" { item_id = "gridworld" }
}
`
	_, err := NewLoader().Load(context.Background(), writeDocument(t, doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nb_runs")
}

func TestLoadRejectsInvalidIdentifiers(t *testing.T) {
	doc := `
output_dir     = "out"
nb_runs        = 1
nb_jobs        = 1
experiment_cls = "plugins/rlexp:rl"
run {}
category "env" {
  variant "v" { item_id = "not valid!" }
}
`
	_, err := NewLoader().Load(context.Background(), writeDocument(t, doc))
	var formatErr *ident.FormatError
	require.ErrorAs(t, err, &formatErr)
}

func TestLoadRejectsZeroRuns(t *testing.T) {
	doc := `
output_dir     = "out"
nb_runs        = 0
nb_jobs        = 1
experiment_cls = "plugins/rlexp:rl"
run {}
category "env" {
  variant "v" { item_id = "gridworld" }
}
`
	_, err := NewLoader().Load(context.Background(), writeDocument(t, doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nb_runs must be >= 1")
}

func TestLoadUnparseableFile(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), writeDocument(t, "category {{{{"))
	assert.Error(t, err)
}
