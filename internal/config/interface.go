package config

import "context"

// Loader is the interface for a format-specific experiment document loader.
type Loader interface {
	// Load reads the document at path and translates it into the
	// format-agnostic model. A missing required key is a load-time error.
	Load(ctx context.Context, path string) (*Experiment, error)
}
