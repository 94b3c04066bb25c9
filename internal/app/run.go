package app

import (
	"context"
	"fmt"

	"github.com/vk/gridsweep/internal/ctxlog"
	"github.com/vk/gridsweep/internal/experiment"
)

// Run executes the loaded experiment: every variant is checked against the
// registry set (variant-level entry points are registered on the fly), the
// experiment_cls entry point is resolved to a run callback, and the
// orchestrator is driven to a terminal state.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if err := a.bindVariants(); err != nil {
		return err
	}

	run, err := a.resolveRunFunc()
	if err != nil {
		return err
	}

	orch := experiment.New(a.cfg, run, a.outW)
	a.mu.Lock()
	a.orch = orch
	a.mu.Unlock()

	if a.appCfg.StatusPort > 0 {
		a.startStatusServer(ctx)
		defer a.closeStatusServer(ctx)
	}

	a.logger.Info("🚀 Starting experiment.",
		"combinations", a.cfg.Combinations(), "nb_runs", a.cfg.NbRuns, "nb_jobs", a.cfg.NbJobs)
	return orch.Execute(ctx)
}

// bindVariants verifies that every configured variant names a registered item
// in its category's registry. A variant carrying an entry point is registered
// here, so documents can introduce items the built-in plugins never declared.
func (a *App) bindVariants() error {
	for _, category := range a.cfg.Categories {
		reg, err := a.set.Category(string(category.ID))
		if err != nil {
			return err
		}
		for _, variant := range category.Variants {
			if variant.EntryPoint != "" {
				if err := reg.Register(string(variant.Item), nil, string(variant.EntryPoint), nil); err != nil {
					return fmt.Errorf("variant %q of category %q: %w", variant.Name, category.ID, err)
				}
				continue
			}
			if _, err := reg.Spec(string(variant.Item)); err != nil {
				return fmt.Errorf("variant %q of category %q: %w", variant.Name, category.ID, err)
			}
		}
	}
	return nil
}

// resolveRunFunc maps the document's experiment_cls entry point to the run
// callback a plugin provided under that key.
func (a *App) resolveRunFunc() (experiment.RunFunc, error) {
	target, err := a.set.Resolver().Resolve(string(a.cfg.ExperimentCls))
	if err != nil {
		return nil, err
	}
	run, ok := target.(experiment.RunFunc)
	if !ok {
		return nil, fmt.Errorf("experiment_cls %q resolves to %T, expected a run callback", a.cfg.ExperimentCls, target)
	}
	return run, nil
}
