// Package ident defines the validated string identifiers used across the
// registry and orchestrator: category ids, item ids, and entry-point ids.
//
// Identifiers are plain strings with a grammar enforced at construction time.
// A value produced by one of the Parse functions is guaranteed valid; code
// that receives an already-typed id can use it without re-checking.
package ident

import (
	"fmt"
	"regexp"
)

var (
	itemIDPattern     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]{0,31}$`)
	categoryIDPattern = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

	// An entry point is a slash- or dot-separated module path, a colon, and
	// an item id, e.g. "plugins/rlexp:rl".
	entryPointPattern = regexp.MustCompile(`^[A-Za-z_]\w*([./][A-Za-z_]\w*)*:[A-Za-z_][A-Za-z0-9_-]{0,31}$`)
)

// FormatError reports an identifier that does not match its grammar.
type FormatError struct {
	Kind  string // "category id", "item id" or "entry point"
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s %q does not match the required format", e.Kind, e.Value)
}

// CategoryID names a plugin category, e.g. "agent". Lowercase only.
type CategoryID string

// ItemID names one variant within a category.
type ItemID string

// EntryPointID references a constructor by "<module path>:<item id>".
type EntryPointID string

// ParseCategoryID validates s against the category grammar.
func ParseCategoryID(s string) (CategoryID, error) {
	if !categoryIDPattern.MatchString(s) {
		return "", &FormatError{Kind: "category id", Value: s}
	}
	return CategoryID(s), nil
}

// ParseItemID validates s against the item grammar.
func ParseItemID(s string) (ItemID, error) {
	if !itemIDPattern.MatchString(s) {
		return "", &FormatError{Kind: "item id", Value: s}
	}
	return ItemID(s), nil
}

// ParseEntryPointID validates s against the entry-point grammar.
func ParseEntryPointID(s string) (EntryPointID, error) {
	if !entryPointPattern.MatchString(s) {
		return "", &FormatError{Kind: "entry point", Value: s}
	}
	return EntryPointID(s), nil
}

func (id CategoryID) String() string   { return string(id) }
func (id ItemID) String() string       { return string(id) }
func (id EntryPointID) String() string { return string(id) }
