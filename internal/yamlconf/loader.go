// Package yamlconf loads experiment documents written in YAML and translates
// them into the format-agnostic config model. Category and variant order is
// the document order, which is why the walk happens on yaml.Node values
// instead of decoded Go maps.
package yamlconf

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/gridsweep/internal/config"
	"github.com/vk/gridsweep/internal/ctxlog"
	"github.com/vk/gridsweep/internal/ident"
)

// Loader implements config.Loader for .yaml experiment documents.
type Loader struct{}

// NewLoader creates a YAML loader.
func NewLoader() *Loader { return &Loader{} }

// Load parses the file at path and translates it into the agnostic model.
func (l *Loader) Load(ctx context.Context, path string) (*config.Experiment, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading YAML experiment document.", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment document: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file %s: %w", path, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("experiment document %s is empty", path)
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("experiment document %s must be a mapping", path)
	}

	exp, err := l.translate(doc)
	if err != nil {
		return nil, fmt.Errorf("invalid experiment document %s: %w", path, err)
	}
	logger.Debug("Experiment document loaded.",
		"categories", len(exp.Categories), "nb_runs", exp.NbRuns, "nb_jobs", exp.NbJobs)
	return exp, nil
}

func (l *Loader) translate(doc *yaml.Node) (*config.Experiment, error) {
	exp := &config.Experiment{Run: map[string]any{}}

	classes, err := requiredKey(doc, "classes")
	if err != nil {
		return nil, err
	}
	if err := l.translateClasses(classes, exp); err != nil {
		return nil, err
	}

	run, err := requiredKey(doc, "run")
	if err != nil {
		return nil, err
	}
	if err := run.Decode(&exp.Run); err != nil {
		return nil, fmt.Errorf("key \"run\": %w", err)
	}

	if err := decodeKey(doc, "nb_runs", &exp.NbRuns); err != nil {
		return nil, err
	}
	if err := decodeKey(doc, "nb_jobs", &exp.NbJobs); err != nil {
		return nil, err
	}
	if err := decodeKey(doc, "output_dir", &exp.OutputDir); err != nil {
		return nil, err
	}

	var experimentCls string
	if err := decodeKey(doc, "experiment_cls", &experimentCls); err != nil {
		return nil, err
	}
	exp.ExperimentCls, err = ident.ParseEntryPointID(experimentCls)
	if err != nil {
		return nil, err
	}

	if err := exp.Validate(); err != nil {
		return nil, err
	}
	return exp, nil
}

// translateClasses walks the classes mapping in document order.
func (l *Loader) translateClasses(classes *yaml.Node, exp *config.Experiment) error {
	if classes.Kind != yaml.MappingNode {
		return fmt.Errorf("key \"classes\" must be a mapping")
	}
	for i := 0; i < len(classes.Content); i += 2 {
		keyNode, valNode := classes.Content[i], classes.Content[i+1]

		categoryID, err := ident.ParseCategoryID(keyNode.Value)
		if err != nil {
			return err
		}
		if valNode.Kind != yaml.MappingNode {
			return fmt.Errorf("category %q must be a mapping of variants", categoryID)
		}

		category := config.Category{ID: categoryID}
		for j := 0; j < len(valNode.Content); j += 2 {
			name, spec := valNode.Content[j], valNode.Content[j+1]
			variant, err := l.translateVariant(categoryID, name.Value, spec)
			if err != nil {
				return err
			}
			category.Variants = append(category.Variants, variant)
		}
		exp.Categories = append(exp.Categories, category)
	}
	return nil
}

func (l *Loader) translateVariant(category ident.CategoryID, name string, spec *yaml.Node) (config.Variant, error) {
	if spec.Kind != yaml.MappingNode {
		return config.Variant{}, fmt.Errorf("category %q, variant %q: must be a mapping", category, name)
	}

	var rawItem string
	if err := decodeKey(spec, "item_id", &rawItem); err != nil {
		return config.Variant{}, fmt.Errorf("category %q, variant %q: %w", category, name, err)
	}
	itemID, err := ident.ParseItemID(rawItem)
	if err != nil {
		return config.Variant{}, fmt.Errorf("category %q, variant %q: %w", category, name, err)
	}

	variant := config.Variant{Name: name, Item: itemID, Kwargs: map[string]any{}}

	if cfg := lookupKey(spec, "config"); cfg != nil {
		if err := cfg.Decode(&variant.Kwargs); err != nil {
			return config.Variant{}, fmt.Errorf("category %q, variant %q: config: %w", category, name, err)
		}
	}
	if ep := lookupKey(spec, "entry_point"); ep != nil {
		variant.EntryPoint, err = ident.ParseEntryPointID(ep.Value)
		if err != nil {
			return config.Variant{}, fmt.Errorf("category %q, variant %q: %w", category, name, err)
		}
	}
	return variant, nil
}

// lookupKey finds a key's value node in a mapping, or nil.
func lookupKey(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// requiredKey finds a key's value node or fails with a key-lookup error.
func requiredKey(mapping *yaml.Node, key string) (*yaml.Node, error) {
	if node := lookupKey(mapping, key); node != nil {
		return node, nil
	}
	return nil, fmt.Errorf("required key %q is missing", key)
}

// decodeKey decodes a required key's value into out.
func decodeKey(mapping *yaml.Node, key string, out any) error {
	node, err := requiredKey(mapping, key)
	if err != nil {
		return err
	}
	if err := node.Decode(out); err != nil {
		return fmt.Errorf("key %q: %w", key, err)
	}
	return nil
}
