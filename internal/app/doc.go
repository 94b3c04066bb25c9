// Package app wires the pieces of a gridsweep invocation together: it owns
// the logger, the registry set populated by plugins, the loaded experiment
// configuration, and the orchestrator lifecycle, plus the optional status
// HTTP server.
package app
