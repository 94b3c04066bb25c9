package experiment

import (
	"context"
	"sync"

	"github.com/vk/gridsweep/internal/ctxlog"
	"github.com/vk/gridsweep/internal/task"
)

// dispatch runs the generator and the worker pool concurrently. It returns
// the first error raised by the generator or a task callback, and whether
// generation was stopped by an external interrupt. Fail-fast policy: the
// first failure cancels generation and dispatch of not-yet-started tasks,
// while tasks already in flight are allowed to finish.
func (o *Orchestrator) dispatch(ctx context.Context) (error, bool) {
	logger := ctxlog.FromContext(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		firstErr  error
		errOnce   sync.Once
		tasksChan = make(chan *task.Task, o.cfg.NbJobs)
		wg        sync.WaitGroup
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	// The generator is the only producer and runs in its own goroutine so
	// generation and dispatch overlap.
	genDone := make(chan struct{})
	go func() {
		defer close(genDone)
		defer close(tasksChan)
		err := task.NewGenerator(o.cfg).Run(runCtx, func(t *task.Task) bool {
			select {
			case tasksChan <- t:
				return true
			case <-runCtx.Done():
				return false
			}
		})
		if err != nil {
			fail(err)
		}
	}()

	logger.Debug("Starting worker pool.", "workers", o.cfg.NbJobs)
	for i := 0; i < o.cfg.NbJobs; i++ {
		wg.Add(1)
		go o.worker(ctx, runCtx, tasksChan, fail, &wg, i)
	}

	wg.Wait()
	<-genDone

	interrupted := firstErr == nil && ctx.Err() != nil
	return firstErr, interrupted
}

// worker executes task callbacks until the channel drains. A cancelled run
// context stops it from starting new tasks; the callback itself receives the
// outer context, so a failure elsewhere never cancels in-flight work.
func (o *Orchestrator) worker(ctx, runCtx context.Context, tasks <-chan *task.Task, fail func(error), wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	logger := ctxlog.FromContext(ctx)

	for t := range tasks {
		if runCtx.Err() != nil {
			logger.Warn("Skipping task: dispatch was cut short.", "task", t.ID, "workerID", workerID)
			continue
		}

		workerLogger := logger.With("workerID", workerID, "task", t.ID)
		workerLogger.Debug("Worker picked up task.")

		if err := o.executeTask(ctx, t); err != nil {
			workerLogger.Error("Task execution failed.",
				"error", err, "dir", t.Dir, "runIndex", t.RunIndex)
			fail(&TaskError{TaskID: t.ID, Dir: t.Dir, RunIndex: t.RunIndex, Err: err})
			continue
		}

		o.completed.Add(1)
		workerLogger.Debug("Task execution succeeded.")
	}
}

// executeTask attaches the task's own log sink and invokes the run callback.
func (o *Orchestrator) executeTask(ctx context.Context, t *task.Task) error {
	taskLogger, closeSink, err := openSink(o.console, t.Dir, o.level)
	if err != nil {
		return err
	}
	defer closeSink()

	taskLogger = taskLogger.With("invocation", o.invocation.String(), "task", t.ID)
	taskCtx := ctxlog.WithLogger(ctx, taskLogger)
	return o.run(taskCtx, t.Variants, t.Run, t.RunIndex, t.Seed, t.Dir)
}
