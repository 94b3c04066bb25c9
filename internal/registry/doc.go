// Package registry provides the central "glue" for the plugin system.
//
// A Registry stores the mapping between the item ids used in experiment
// documents (e.g. "q-learning") and the compiled Go constructors that build
// the matching implementation, together with each item's default keyword
// arguments. One Registry exists per category, and all registries for a
// process live in a Set owned by the application entry point.
//
// Plugins populate the Set at startup through explicit Declare calls. The
// declaration hierarchy (one root per category, variants tracing back to
// exactly one root) is validated at declaration time, so a Set that finished
// startup without error is internally consistent and immutable in practice.
package registry
