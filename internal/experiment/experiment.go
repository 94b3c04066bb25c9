// Package experiment contains the orchestrator: it owns the output-root
// lifecycle, streams tasks out of the generator, and dispatches them to a
// bounded worker pool with a fail-fast error policy.
package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/vk/gridsweep/internal/config"
	"github.com/vk/gridsweep/internal/ctxlog"
	"github.com/vk/gridsweep/internal/ident"
)

// RunFunc is the caller-supplied run logic invoked once per task. It receives
// the task's resolved variant per category, its private copy of the run
// parameters, the run index, the task's deterministic seed, and the task's
// output directory. The logger in ctx is bound to the task's own log sink.
type RunFunc func(ctx context.Context, variants map[ident.CategoryID]config.Variant, runParams map[string]any, runIndex int, seed uint64, outputDir string) error

// TaskError reports a task callback failure with enough context to locate
// the failing run on disk.
type TaskError struct {
	TaskID   string
	Dir      string
	RunIndex int
	Err      error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %q (run %d, dir %s) failed: %v", e.TaskID, e.RunIndex, e.Dir, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// Orchestrator drives one experiment invocation end to end.
type Orchestrator struct {
	cfg     *config.Experiment
	run     RunFunc
	console io.Writer
	level   slog.Level

	invocation uuid.UUID
	state      atomic.Int32
	completed  atomic.Int64
	total      int
}

// New creates an orchestrator for the given configuration and run callback.
// Log sinks mirror everything to console in addition to their log files.
func New(cfg *config.Experiment, run RunFunc, console io.Writer) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		run:        run,
		console:    console,
		level:      slog.LevelInfo,
		invocation: uuid.New(),
		total:      cfg.Combinations() * cfg.NbRuns,
	}
}

// State returns the orchestrator's current lifecycle state.
func (o *Orchestrator) State() State { return State(o.state.Load()) }

// Progress returns the number of completed tasks and the total task count.
func (o *Orchestrator) Progress() (completed, total int) {
	return int(o.completed.Load()), o.total
}

// InvocationID identifies this experiment invocation in logs and status output.
func (o *Orchestrator) InvocationID() string { return o.invocation.String() }

// Execute runs the full experiment: recreate the output root, attach the
// root log sink, then generate and dispatch every task. It returns the first
// task or generation error, or nil when the experiment completed or was
// interrupted cooperatively.
func (o *Orchestrator) Execute(ctx context.Context) error {
	rootLogger, closeRoot, err := o.prepareRoot()
	if err != nil {
		o.state.Store(int32(Aborted))
		return err
	}
	defer closeRoot()
	o.state.Store(int32(RootPrepared))

	rootLogger.Info("Running experiment.",
		"output_dir", o.cfg.OutputDir, "tasks", o.total, "nb_jobs", o.cfg.NbJobs)

	o.state.Store(int32(Running))
	ctx = ctxlog.WithLogger(ctx, rootLogger)
	firstErr, interrupted := o.dispatch(ctx)

	switch {
	case firstErr != nil:
		o.state.Store(int32(Aborted))
		rootLogger.Error("Experiment aborted.", "error", firstErr)
		return firstErr
	case interrupted:
		o.state.Store(int32(Interrupted))
		rootLogger.Warn("Experiment interrupted; finished tasks are kept.")
		return nil
	default:
		o.state.Store(int32(Completed))
		rootLogger.Info("🏁 Experiment finished.", "tasks", o.total)
		return nil
	}
}

// prepareRoot destructively recreates the output root and opens its log sink.
func (o *Orchestrator) prepareRoot() (*slog.Logger, func() error, error) {
	if err := os.RemoveAll(o.cfg.OutputDir); err != nil {
		return nil, nil, fmt.Errorf("failed to remove output root %s: %w", o.cfg.OutputDir, err)
	}
	if err := os.MkdirAll(o.cfg.OutputDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create output root %s: %w", o.cfg.OutputDir, err)
	}

	logger, closer, err := openSink(o.console, o.cfg.OutputDir, o.level)
	if err != nil {
		return nil, nil, err
	}
	return logger.With("invocation", o.invocation.String()), closer, nil
}
