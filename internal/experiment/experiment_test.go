package experiment

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gridsweep/internal/config"
	"github.com/vk/gridsweep/internal/ident"
)

// testConfig expands to 20 tasks: (2 agents × 2 envs) × 5 runs.
func testConfig(root string, nbJobs int) *config.Experiment {
	return &config.Experiment{
		Categories: []config.Category{
			{ID: "agent", Variants: []config.Variant{
				{Name: "ql", Item: "q-learning", Kwargs: map[string]any{"alpha": 0.1}},
				{Name: "sarsa", Item: "sarsa", Kwargs: map[string]any{}},
			}},
			{ID: "env", Variants: []config.Variant{
				{Name: "small", Item: "grid-small", Kwargs: map[string]any{}},
				{Name: "large", Item: "grid-large", Kwargs: map[string]any{}},
			}},
		},
		Run:           map[string]any{"time_steps": 10},
		NbRuns:        5,
		NbJobs:        nbJobs,
		OutputDir:     filepath.Join(root, "out"),
		ExperimentCls: "plugins/rlexp:rl",
	}
}

// dirRecorder is a run callback that records which directories it visited.
type dirRecorder struct {
	mu   sync.Mutex
	dirs []string
}

func (r *dirRecorder) run(ctx context.Context, variants map[ident.CategoryID]config.Variant, runParams map[string]any, runIndex int, seed uint64, outputDir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirs = append(r.dirs, outputDir)
	return nil
}

func TestExecuteCompletes(t *testing.T) {
	cfg := testConfig(t.TempDir(), 4)
	recorder := &dirRecorder{}
	o := New(cfg, recorder.run, io.Discard)
	require.Equal(t, Created, o.State())

	require.NoError(t, o.Execute(context.Background()))
	assert.Equal(t, Completed, o.State())

	completed, total := o.Progress()
	assert.Equal(t, 20, total)
	assert.Equal(t, 20, completed)

	// Every task directory was visited by exactly one worker.
	require.Len(t, recorder.dirs, 20)
	seen := make(map[string]bool)
	for _, dir := range recorder.dirs {
		assert.False(t, seen[dir], "directory %s dispatched twice", dir)
		seen[dir] = true
	}

	// Log sinks exist at the root and in every task directory.
	_, err := os.Stat(filepath.Join(cfg.OutputDir, "output.log"))
	assert.NoError(t, err)
	for dir := range seen {
		_, err := os.Stat(filepath.Join(dir, "output.log"))
		assert.NoError(t, err)
	}
}

func TestExecuteRecreatesOutputRoot(t *testing.T) {
	cfg := testConfig(t.TempDir(), 2)

	stale := filepath.Join(cfg.OutputDir, "stale-results")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "old.txt"), []byte("old"), 0o644))

	o := New(cfg, (&dirRecorder{}).run, io.Discard)
	require.NoError(t, o.Execute(context.Background()))

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "pre-existing root contents must be removed")
}

func TestExecuteFailFast(t *testing.T) {
	cfg := testConfig(t.TempDir(), 4)

	var calls atomic.Int64
	failing := func(ctx context.Context, variants map[ident.CategoryID]config.Variant, runParams map[string]any, runIndex int, seed uint64, outputDir string) error {
		n := calls.Add(1)
		if n == 5 {
			return errors.New("synthetic callback failure")
		}
		// Give the failure time to cancel dispatch so later tasks are skipped.
		time.Sleep(5 * time.Millisecond)
		return nil
	}

	o := New(cfg, failing, io.Discard)
	err := o.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, Aborted, o.State())

	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.ErrorContains(t, taskErr.Err, "synthetic callback failure")
	assert.NotEmpty(t, taskErr.Dir)
	assert.GreaterOrEqual(t, taskErr.RunIndex, 0)

	// Not every task ran: dispatch of not-yet-started tasks was aborted.
	completed, total := o.Progress()
	assert.Equal(t, 20, total)
	assert.Less(t, completed, total)
}

func TestExecuteInFlightTasksFinish(t *testing.T) {
	cfg := testConfig(t.TempDir(), 2)

	var started, finished atomic.Int64
	blocker := make(chan struct{})
	callback := func(ctx context.Context, variants map[ident.CategoryID]config.Variant, runParams map[string]any, runIndex int, seed uint64, outputDir string) error {
		n := started.Add(1)
		if n == 1 {
			// First task fails after the second is already in flight.
			<-blocker
			return errors.New("late failure")
		}
		if n == 2 {
			close(blocker)
			time.Sleep(10 * time.Millisecond)
		}
		finished.Add(1)
		return nil
	}

	o := New(cfg, callback, io.Discard)
	err := o.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, Aborted, o.State())
	assert.GreaterOrEqual(t, finished.Load(), int64(1), "the in-flight task ran to completion")
}

func TestExecuteInterrupted(t *testing.T) {
	cfg := testConfig(t.TempDir(), 2)
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int64
	callback := func(ctx context.Context, variants map[ident.CategoryID]config.Variant, runParams map[string]any, runIndex int, seed uint64, outputDir string) error {
		if calls.Add(1) == 3 {
			cancel()
		}
		return nil
	}

	o := New(cfg, callback, io.Discard)
	require.NoError(t, o.Execute(ctx), "cooperative interruption is not an error")
	assert.Equal(t, Interrupted, o.State())

	completed, total := o.Progress()
	assert.Less(t, completed, total)
}

func TestExecuteAbortsWhenRootUnpreparable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	root := t.TempDir()
	cfg := testConfig(root, 1)

	// Make the output root's parent read-only so MkdirAll fails.
	blocked := filepath.Join(root, "blocked")
	require.NoError(t, os.MkdirAll(blocked, 0o555))
	cfg.OutputDir = filepath.Join(blocked, "out")

	var calls atomic.Int64
	o := New(cfg, func(ctx context.Context, variants map[ident.CategoryID]config.Variant, runParams map[string]any, runIndex int, seed uint64, outputDir string) error {
		calls.Add(1)
		return nil
	}, io.Discard)

	err := o.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, Aborted, o.State())
	assert.Equal(t, int64(0), calls.Load(), "no task may run when root preparation fails")
}

func TestInvocationIDStable(t *testing.T) {
	o := New(testConfig(t.TempDir(), 1), (&dirRecorder{}).run, io.Discard)
	assert.NotEmpty(t, o.InvocationID())
	assert.Equal(t, o.InvocationID(), o.InvocationID())
}
