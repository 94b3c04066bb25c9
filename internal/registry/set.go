package registry

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/gridsweep/internal/ident"
)

// Declaration describes one node of a category's specialization hierarchy.
//
// A declaration with no Bases is the category root: it fixes the category id
// and the base capability every registered constructor must satisfy. Any
// other declaration is a variant (or, with Abstract set, an intermediate
// specialization) and must trace back through its Bases to exactly one root.
type Declaration struct {
	Category   ident.CategoryID // required on the root; inherited when empty
	Item       ident.ItemID     // the id to register under; unset on the root
	Capability reflect.Type     // root only: the category's base capability
	Bases      []*Declaration   // parent declarations; empty marks the root

	Constructor any
	EntryPoint  string
	Defaults    map[string]any

	// Abstract declarations participate in the hierarchy without producing
	// a registry entry.
	Abstract bool
}

// Set owns all registries of a process, one per category. It replaces the
// global meta-registry of older designs: the entry point constructs a Set,
// hands it to every plugin for declarations, and passes it to wherever
// lookups occur.
type Set struct {
	registries map[ident.CategoryID]*Registry
	roots      map[ident.CategoryID]*Declaration
	resolver   *Resolver
}

// NewSet creates an empty registry set with its own entry-point resolver.
func NewSet() *Set {
	return &Set{
		registries: make(map[ident.CategoryID]*Registry),
		roots:      make(map[ident.CategoryID]*Declaration),
		resolver:   NewResolver(),
	}
}

// Resolver returns the set's entry-point table.
func (s *Set) Resolver() *Resolver { return s.resolver }

// Category returns the registry for a category id, or a LookupError.
func (s *Set) Category(category string) (*Registry, error) {
	id, err := ident.ParseCategoryID(category)
	if err != nil {
		return nil, err
	}
	reg, ok := s.registries[id]
	if !ok {
		return nil, &LookupError{Category: id}
	}
	return reg, nil
}

// Categories returns the declared category ids, in no particular order.
func (s *Set) Categories() []ident.CategoryID {
	ids := make([]ident.CategoryID, 0, len(s.registries))
	for id := range s.registries {
		ids = append(ids, id)
	}
	return ids
}

// Declare validates a declaration against the hierarchy rules and, for a
// non-abstract variant, registers its constructor. All checks run before any
// state mutation: a failed Declare leaves the set exactly as it was.
func (s *Set) Declare(d *Declaration) error {
	if len(d.Bases) == 0 {
		return s.declareRoot(d)
	}
	return s.declareVariant(d)
}

// declareRoot introduces a category. Exactly one root may exist per category
// for the lifetime of the process.
func (s *Set) declareRoot(d *Declaration) error {
	category, err := ident.ParseCategoryID(string(d.Category))
	if err != nil {
		return err
	}
	if d.Capability == nil {
		return configErrorf("root declaration of category %q must carry a capability type", category)
	}
	if d.Item != "" {
		return configErrorf("root declaration of category %q must not carry an item id", category)
	}
	if prior, exists := s.roots[category]; exists {
		return configErrorf("category %q already has root %s; cannot declare a second root %s",
			category, prior.Capability, d.Capability)
	}

	s.roots[category] = d
	s.registries[category] = newRegistry(category, d.Capability, s.resolver)
	return nil
}

// declareVariant validates a non-root declaration's ancestry and registers it.
func (s *Set) declareVariant(d *Declaration) error {
	root, err := s.traceRoot(d)
	if err != nil {
		return err
	}

	if d.Category != "" && d.Category != root.Category {
		return configErrorf("declaration of item %q reports category %q but its root declares %q",
			d.Item, d.Category, root.Category)
	}

	if d.Abstract {
		if d.Constructor != nil || d.EntryPoint != "" {
			return configErrorf("abstract declaration %q must not carry a constructor", d.Item)
		}
		return nil
	}

	if declared, ok := s.roots[root.Category]; !ok || declared != root {
		return configErrorf("declaration of item %q traces to a root for category %q that was never declared to this set",
			d.Item, root.Category)
	}
	return s.registries[root.Category].Register(string(d.Item), d.Constructor, d.EntryPoint, d.Defaults)
}

// traceRoot walks a declaration's ancestry and enforces the hierarchy rules:
// exactly one root ancestor, and at most one ancestor that is itself a direct
// specialization of that root (no diamond mixing).
func (s *Set) traceRoot(d *Declaration) (*Declaration, error) {
	var (
		queue      = make([]*Declaration, 0, len(d.Bases))
		seen       = make(map[*Declaration]bool)
		roots      = make(map[*Declaration]bool)
		rootDirect = make(map[*Declaration]bool)
	)
	queue = append(queue, d.Bases...)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == nil || seen[current] {
			continue
		}
		seen[current] = true

		if len(current.Bases) == 0 {
			roots[current] = true
			continue
		}
		for _, base := range current.Bases {
			if base != nil && len(base.Bases) == 0 {
				rootDirect[current] = true
			}
		}
		queue = append(queue, current.Bases...)
	}

	if len(roots) != 1 {
		names := make([]string, 0, len(roots))
		for root := range roots {
			names = append(names, fmt.Sprintf("%s (category %q)", root.Capability, root.Category))
		}
		return nil, configErrorf("declaration of item %q must trace back to exactly one root, found %d: %s",
			d.Item, len(roots), strings.Join(names, ", "))
	}
	if len(rootDirect) > 1 {
		return nil, configErrorf("declaration of item %q mixes %d direct specializations of the root",
			d.Item, len(rootDirect))
	}

	for root := range roots {
		return root, nil
	}
	panic("unreachable")
}
