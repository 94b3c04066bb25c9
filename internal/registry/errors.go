package registry

import (
	"fmt"

	"github.com/vk/gridsweep/internal/ident"
)

// ConfigurationError reports a malformed registration or declaration: a bad
// register call shape, a constructor that does not satisfy the category's
// capability, a duplicate root, or a broken specialization hierarchy.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// LookupError reports an unknown item id or category at use time. Item is
// empty when the category itself is unknown.
type LookupError struct {
	Category ident.CategoryID
	Item     ident.ItemID
}

func (e *LookupError) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("category %q is not registered", e.Category)
	}
	return fmt.Sprintf("item id %q is not registered in category %q", e.Item, e.Category)
}

// LoadError reports an entry point that could not be resolved against the
// table of provided constructors.
type LoadError struct {
	EntryPoint ident.EntryPointID
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("entry point %q cannot be resolved", e.EntryPoint)
}
