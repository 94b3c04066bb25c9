// Package hclconf loads experiment documents written in HCL and translates
// them into the format-agnostic config model.
package hclconf

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/gridsweep/internal/config"
	"github.com/vk/gridsweep/internal/ctxlog"
	"github.com/vk/gridsweep/internal/ident"
)

// Loader implements config.Loader for .hcl experiment documents.
type Loader struct{}

// NewLoader creates an HCL loader.
func NewLoader() *Loader { return &Loader{} }

// Load parses the file at path and translates it into the agnostic model.
func (l *Loader) Load(ctx context.Context, path string) (*config.Experiment, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading HCL experiment document.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var doc document
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode experiment document %s: %w", path, diags)
	}

	exp, err := l.translate(&doc)
	if err != nil {
		return nil, fmt.Errorf("invalid experiment document %s: %w", path, err)
	}
	logger.Debug("Experiment document loaded.",
		"categories", len(exp.Categories), "nb_runs", exp.NbRuns, "nb_jobs", exp.NbJobs)
	return exp, nil
}

// translate converts the HCL-specific document schema into the agnostic model.
func (l *Loader) translate(doc *document) (*config.Experiment, error) {
	experimentCls, err := ident.ParseEntryPointID(doc.ExperimentCls)
	if err != nil {
		return nil, err
	}

	if doc.Run == nil {
		return nil, fmt.Errorf("required block \"run\" is missing")
	}
	runParams, err := decodeAttributes(doc.Run.Body)
	if err != nil {
		return nil, fmt.Errorf("in run block: %w", err)
	}

	exp := &config.Experiment{
		Run:           runParams,
		NbRuns:        doc.NbRuns,
		NbJobs:        doc.NbJobs,
		OutputDir:     doc.OutputDir,
		ExperimentCls: experimentCls,
	}

	for _, cat := range doc.Categories {
		categoryID, err := ident.ParseCategoryID(cat.ID)
		if err != nil {
			return nil, err
		}
		translated := config.Category{ID: categoryID}
		for _, v := range cat.Variants {
			variant, err := l.translateVariant(cat.ID, v)
			if err != nil {
				return nil, err
			}
			translated.Variants = append(translated.Variants, variant)
		}
		exp.Categories = append(exp.Categories, translated)
	}

	if err := exp.Validate(); err != nil {
		return nil, err
	}
	return exp, nil
}

func (l *Loader) translateVariant(category string, v *variantBlock) (config.Variant, error) {
	itemID, err := ident.ParseItemID(v.ItemID)
	if err != nil {
		return config.Variant{}, fmt.Errorf("category %q, variant %q: %w", category, v.Name, err)
	}

	var entryPoint ident.EntryPointID
	if v.EntryPoint != "" {
		entryPoint, err = ident.ParseEntryPointID(v.EntryPoint)
		if err != nil {
			return config.Variant{}, fmt.Errorf("category %q, variant %q: %w", category, v.Name, err)
		}
	}

	kwargs := map[string]any{}
	if v.Config != nil {
		val, diags := v.Config.Value(nil)
		if diags.HasErrors() {
			return config.Variant{}, fmt.Errorf("category %q, variant %q: %w", category, v.Name, diags)
		}
		if !val.IsNull() {
			native, err := ctyToNative(val)
			if err != nil {
				return config.Variant{}, fmt.Errorf("category %q, variant %q: %w", category, v.Name, err)
			}
			m, ok := native.(map[string]any)
			if !ok {
				return config.Variant{}, fmt.Errorf("category %q, variant %q: config must be an object", category, v.Name)
			}
			kwargs = m
		}
	}

	return config.Variant{
		Name:       v.Name,
		Item:       itemID,
		EntryPoint: entryPoint,
		Kwargs:     kwargs,
	}, nil
}

// decodeAttributes converts a body of plain attributes into a native map.
func decodeAttributes(body hcl.Body) (map[string]any, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	out := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		native, err := ctyToNative(val)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = native
	}
	return out, nil
}
