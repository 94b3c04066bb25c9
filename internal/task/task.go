// Package task turns an experiment configuration into its runnable tasks:
// one task per variant combination per run index, each with an isolated
// output directory and a deterministic seed.
package task

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"

	"github.com/vk/gridsweep/internal/config"
	"github.com/vk/gridsweep/internal/ident"
)

// Task is one fully resolved combination: the chosen variant per category, a
// run index, the task's dedicated output directory, and private copies of
// every keyword-argument map. No two tasks alias mutable state.
type Task struct {
	// ID is the task's path relative to the output root, e.g. "a1/b1/02".
	ID string
	// Variants maps each category to its chosen variant configuration.
	Variants map[ident.CategoryID]config.Variant
	// Run holds this task's private copy of the opaque run parameters.
	Run map[string]any
	// RunIndex is in [0, nb_runs).
	RunIndex int
	// Dir is the absolute or root-joined output directory, created before
	// the task is yielded.
	Dir string
	// Seed is derived from ID and stable across invocations and machines.
	Seed uint64
}

// copyVariant returns a variant with its own deep copy of the kwargs map.
func copyVariant(v config.Variant) config.Variant {
	out := v
	out.Kwargs = copyMap(v.Kwargs)
	return out
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	if len(m) == 0 {
		return out
	}
	if err := deepcopy.Copy(&out, m); err != nil {
		// Config maps hold only scalars, slices and nested maps.
		panic(fmt.Sprintf("task: deep copy failed: %v", err))
	}
	return out
}
