package registry

import (
	"log/slog"
	"sync"

	"github.com/vk/gridsweep/internal/ident"
)

// Resolver is the entry-point lookup table. Plugins provide constructors
// under "<module path>:<item id>" keys once at process start; anything that
// names an entry point later (register calls, experiment_cls) resolves
// against this table. An unknown key is a LoadError, never a crash.
type Resolver struct {
	mu    sync.RWMutex
	table map[ident.EntryPointID]any
}

// NewResolver creates an empty entry-point table.
func NewResolver() *Resolver {
	return &Resolver{table: make(map[ident.EntryPointID]any)}
}

// Provide binds an entry point to a target (a constructor or a run callback).
// Providing the same entry point again overwrites the previous target.
func (r *Resolver) Provide(entryPoint string, target any) error {
	ep, err := ident.ParseEntryPointID(entryPoint)
	if err != nil {
		return err
	}
	if target == nil {
		return configErrorf("entry point %q: target must not be nil", entryPoint)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.table[ep]; exists {
		slog.Debug("Overwriting entry point.", "entryPoint", ep)
	}
	r.table[ep] = target
	return nil
}

// Resolve returns the target bound to an entry point, or a LoadError.
func (r *Resolver) Resolve(entryPoint string) (any, error) {
	ep, err := ident.ParseEntryPointID(entryPoint)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	target, ok := r.table[ep]
	if !ok {
		return nil, &LoadError{EntryPoint: ep}
	}
	return target, nil
}
