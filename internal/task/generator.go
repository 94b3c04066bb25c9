package task

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vk/gridsweep/internal/config"
	"github.com/vk/gridsweep/internal/ctxlog"
	"github.com/vk/gridsweep/internal/ident"
)

// Generator lazily expands a configuration into the Cartesian product of its
// variant choices times the run indices. Generation is deterministic and
// single-pass: category order and per-category variant order come from the
// configuration, run indices count up from zero.
type Generator struct {
	cfg *config.Experiment
}

// NewGenerator creates a generator over the given configuration.
func NewGenerator(cfg *config.Experiment) *Generator {
	return &Generator{cfg: cfg}
}

// Total returns the number of tasks a full generation yields.
func (g *Generator) Total() int {
	return g.cfg.Combinations() * g.cfg.NbRuns
}

// Run produces tasks in order, calling yield for each one. Every task's
// output directory is created before the task is yielded; any filesystem
// failure aborts generation with that error. Cancelling the context stops
// generation cleanly without an error, as does yield returning false.
func (g *Generator) Run(ctx context.Context, yield func(*Task) bool) error {
	logger := ctxlog.FromContext(ctx)
	padWidth := len(strconv.Itoa(g.cfg.NbRuns - 1))

	categories := g.cfg.Categories
	odometer := make([]int, len(categories))
	for {
		// Check before creating the combination directory, so an interrupt
		// between combinations leaves no empty directory behind.
		if ctx.Err() != nil {
			logger.Warn("Interrupt received, stopping task generation.")
			return nil
		}

		combination := make([]config.Variant, len(categories))
		for i, pos := range odometer {
			combination[i] = categories[i].Variants[pos]
		}

		comboDir := g.cfg.OutputDir
		comboID := ""
		for _, variant := range combination {
			comboDir = filepath.Join(comboDir, string(variant.Item))
			comboID = filepath.Join(comboID, string(variant.Item))
		}
		// Shared combination prefixes may already exist from a sibling
		// combination; only the run directory itself must be fresh.
		if err := os.MkdirAll(comboDir, 0o755); err != nil {
			return fmt.Errorf("failed to create combination directory %s: %w", comboDir, err)
		}

		for runIndex := 0; runIndex < g.cfg.NbRuns; runIndex++ {
			if ctx.Err() != nil {
				logger.Warn("Interrupt received, stopping task generation.")
				return nil
			}

			runName := fmt.Sprintf("%0*d", padWidth, runIndex)
			runDir := filepath.Join(comboDir, runName)
			if err := os.Mkdir(runDir, 0o755); err != nil {
				return fmt.Errorf("failed to create task directory %s: %w", runDir, err)
			}

			t := g.newTask(combination, runIndex, filepath.Join(comboID, runName), runDir)
			logger.Info("Launching experiment task.", "task", t.ID)
			if !yield(t) {
				return nil
			}
		}

		if !advance(odometer, categories) {
			return nil
		}
	}
}

// newTask assembles a task with private deep copies of all kwargs.
func (g *Generator) newTask(combination []config.Variant, runIndex int, id, dir string) *Task {
	variants := make(map[ident.CategoryID]config.Variant, len(combination))
	for i, variant := range combination {
		variants[g.cfg.Categories[i].ID] = copyVariant(variant)
	}
	return &Task{
		ID:       id,
		Variants: variants,
		Run:      copyMap(g.cfg.Run),
		RunIndex: runIndex,
		Dir:      dir,
		Seed:     seedFor(id),
	}
}

// advance increments the combination odometer, rightmost category fastest.
// It returns false once every combination has been produced.
func advance(odometer []int, categories []config.Category) bool {
	for i := len(odometer) - 1; i >= 0; i-- {
		odometer[i]++
		if odometer[i] < len(categories[i].Variants) {
			return true
		}
		odometer[i] = 0
	}
	return false
}
