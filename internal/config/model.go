package config

import (
	"fmt"

	"github.com/vk/gridsweep/internal/ident"
)

// Variant is one selectable implementation inside a category: a display name,
// the item id to resolve against the category's registry, optional keyword
// overrides, and an optional entry point to register the item from.
type Variant struct {
	Name       string
	Item       ident.ItemID
	EntryPoint ident.EntryPointID // optional; registered during validation
	Kwargs     map[string]any
}

// Category holds a category id and its ordered list of variant choices. The
// order is the declaration order of the source document and determines both
// task generation order and output directory layout.
type Category struct {
	ID       ident.CategoryID
	Variants []Variant
}

// Experiment is the unified, format-agnostic representation of one experiment
// invocation.
type Experiment struct {
	Categories    []Category     // ordered as declared
	Run           map[string]any // opaque run parameters, passed to the callback
	NbRuns        int
	NbJobs        int
	OutputDir     string
	ExperimentCls ident.EntryPointID
}

// Validate checks the structural invariants shared by every loader.
func (e *Experiment) Validate() error {
	if e.NbRuns < 1 {
		return fmt.Errorf("nb_runs must be >= 1, got %d", e.NbRuns)
	}
	if e.NbJobs < 1 {
		return fmt.Errorf("nb_jobs must be >= 1, got %d", e.NbJobs)
	}
	if e.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if e.ExperimentCls == "" {
		return fmt.Errorf("experiment_cls must not be empty")
	}
	if len(e.Categories) == 0 {
		return fmt.Errorf("at least one category with variants is required")
	}
	for _, cat := range e.Categories {
		if len(cat.Variants) == 0 {
			return fmt.Errorf("category %q declares no variants", cat.ID)
		}
	}
	return nil
}

// Combinations returns the number of variant combinations the configuration
// expands to.
func (e *Experiment) Combinations() int {
	n := 1
	for _, cat := range e.Categories {
		n *= len(cat.Variants)
	}
	return n
}
