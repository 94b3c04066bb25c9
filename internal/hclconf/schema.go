package hclconf

import "github.com/hashicorp/hcl/v2"

// document represents the top-level structure of an experiment file.
type document struct {
	OutputDir     string           `hcl:"output_dir"`
	NbRuns        int              `hcl:"nb_runs"`
	NbJobs        int              `hcl:"nb_jobs"`
	ExperimentCls string           `hcl:"experiment_cls"`
	Run           *runBlock        `hcl:"run,block"`
	Categories    []*categoryBlock `hcl:"category,block"`
}

// runBlock carries the opaque run parameters; its attributes are decoded as-is.
type runBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// categoryBlock represents a `category "<id>"` block and its ordered variants.
type categoryBlock struct {
	ID       string          `hcl:"id,label"`
	Variants []*variantBlock `hcl:"variant,block"`
}

// variantBlock represents a `variant "<name>"` block inside a category.
type variantBlock struct {
	Name       string         `hcl:"name,label"`
	ItemID     string         `hcl:"item_id"`
	EntryPoint string         `hcl:"entry_point,optional"`
	Config     hcl.Expression `hcl:"config,optional"`
}
