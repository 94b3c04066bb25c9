package registry

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/tiendc/go-deepcopy"

	"github.com/vk/gridsweep/internal/ident"
)

// A constructor registered for an item must have this shape: positional
// arguments first, merged keyword arguments second, and a value satisfying
// the category's capability plus an error out. The concrete return type is
// checked against the capability via reflection at registration time.
//
//	func(args []any, kwargs map[string]any) (T, error)

var (
	argsType   = reflect.TypeOf([]any(nil))
	kwargsType = reflect.TypeOf(map[string]any(nil))
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
)

// ItemSpec is the immutable binding of an item id to a constructor and its
// default keyword arguments.
type ItemSpec struct {
	item        ident.ItemID
	constructor reflect.Value
	defaults    map[string]any
}

// ItemID returns the id this spec was registered under.
func (s *ItemSpec) ItemID() ident.ItemID { return s.item }

// Defaults returns a deep copy of the spec's default keyword arguments.
func (s *ItemSpec) Defaults() map[string]any {
	return copyKwargs(s.defaults)
}

// Make builds a fresh instance. Overrides are merged over the spec's defaults
// (overrides win) and the merged map is a deep copy, so the constructor can
// mutate it freely without affecting the spec or other instances. Instances
// are never cached.
func (s *ItemSpec) Make(args []any, overrides map[string]any) (any, error) {
	kwargs := copyKwargs(s.defaults)
	for k, v := range copyKwargs(overrides) {
		kwargs[k] = v
	}

	in := []reflect.Value{reflect.ValueOf(args), reflect.ValueOf(kwargs)}
	if args == nil {
		in[0] = reflect.Zero(argsType)
	}
	out := s.constructor.Call(in)
	if errVal := out[1].Interface(); errVal != nil {
		return nil, fmt.Errorf("constructor for item %q failed: %w", s.item, errVal.(error))
	}
	return out[0].Interface(), nil
}

// Registry stores the item specs of a single category. The category's base
// capability type is fixed at creation and never changes.
type Registry struct {
	category   ident.CategoryID
	capability reflect.Type
	specs      map[ident.ItemID]*ItemSpec
	resolver   *Resolver
}

func newRegistry(category ident.CategoryID, capability reflect.Type, resolver *Resolver) *Registry {
	return &Registry{
		category:   category,
		capability: capability,
		specs:      make(map[ident.ItemID]*ItemSpec),
		resolver:   resolver,
	}
}

// Category returns the category id this registry serves.
func (r *Registry) Category() ident.CategoryID { return r.category }

// Capability returns the base capability type declared by the category root.
func (r *Registry) Capability() reflect.Type { return r.capability }

// Has reports whether an item id is registered.
func (r *Registry) Has(item ident.ItemID) bool {
	_, ok := r.specs[item]
	return ok
}

// Items returns the registered item ids, in no particular order.
func (r *Registry) Items() []ident.ItemID {
	items := make([]ident.ItemID, 0, len(r.specs))
	for id := range r.specs {
		items = append(items, id)
	}
	return items
}

// Register binds an item id to a constructor. Exactly one of constructor and
// entryPoint must be supplied; an entry point is resolved through the set's
// resolver table before any further checks. The constructor must produce a
// value satisfying the category's capability. Registering an id that is
// already in use overwrites the previous spec.
func (r *Registry) Register(item string, constructor any, entryPoint string, defaults map[string]any) error {
	itemID, err := ident.ParseItemID(item)
	if err != nil {
		return err
	}

	if (constructor == nil) == (entryPoint == "") {
		return configErrorf("item %q: exactly one of constructor and entry point must be provided", item)
	}

	if entryPoint != "" {
		constructor, err = r.resolver.Resolve(entryPoint)
		if err != nil {
			return err
		}
	}

	ctorVal, err := r.checkConstructor(constructor)
	if err != nil {
		return err
	}

	if _, exists := r.specs[itemID]; exists {
		slog.Debug("Overwriting registered item.", "category", r.category, "item", itemID)
	}
	r.specs[itemID] = &ItemSpec{
		item:        itemID,
		constructor: ctorVal,
		defaults:    copyKwargs(defaults),
	}
	return nil
}

// Spec returns the spec registered under item, or a LookupError.
func (r *Registry) Spec(item string) (*ItemSpec, error) {
	itemID, err := ident.ParseItemID(item)
	if err != nil {
		return nil, err
	}
	spec, ok := r.specs[itemID]
	if !ok {
		return nil, &LookupError{Category: r.category, Item: itemID}
	}
	return spec, nil
}

// Make looks up the item's spec and builds a fresh instance with the given
// positional arguments and keyword overrides.
func (r *Registry) Make(item string, args []any, overrides map[string]any) (any, error) {
	spec, err := r.Spec(item)
	if err != nil {
		return nil, err
	}
	return spec.Make(args, overrides)
}

// checkConstructor verifies the constructor's shape and that its product
// satisfies the category's capability.
func (r *Registry) checkConstructor(constructor any) (reflect.Value, error) {
	ctorVal := reflect.ValueOf(constructor)
	t := ctorVal.Kind()
	if t != reflect.Func {
		return reflect.Value{}, configErrorf("constructor must be a func, got %T", constructor)
	}
	ft := ctorVal.Type()
	if ft.NumIn() != 2 || ft.In(0) != argsType || ft.In(1) != kwargsType {
		return reflect.Value{}, configErrorf(
			"constructor %s must accept ([]any, map[string]any)", ft)
	}
	if ft.NumOut() != 2 || ft.Out(1) != errorType {
		return reflect.Value{}, configErrorf(
			"constructor %s must return (value, error)", ft)
	}

	product := ft.Out(0)
	if !satisfies(product, r.capability) {
		return reflect.Value{}, configErrorf(
			"constructor product %s does not satisfy capability %s of category %q",
			product, r.capability, r.category)
	}
	return ctorVal, nil
}

// satisfies reports whether a produced type meets the capability contract:
// interface implementation for interface capabilities, assignability otherwise.
func satisfies(product, capability reflect.Type) bool {
	if capability.Kind() == reflect.Interface {
		return product.Implements(capability)
	}
	return product.AssignableTo(capability)
}

// copyKwargs deep-copies a keyword-argument map so no two holders can alias
// mutable state. A nil input yields an empty, usable map.
func copyKwargs(kwargs map[string]any) map[string]any {
	out := make(map[string]any, len(kwargs))
	if len(kwargs) == 0 {
		return out
	}
	if err := deepcopy.Copy(&out, kwargs); err != nil {
		// Kwargs come from config documents and plugin literals; these are
		// plain maps, slices and scalars, which always copy.
		panic(fmt.Sprintf("registry: kwargs deep copy failed: %v", err))
	}
	return out
}
