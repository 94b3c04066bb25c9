// Package config defines the format-agnostic experiment configuration model,
// along with the Loader interface for reading it from various document
// formats. The config.Experiment value is the single source of truth for the
// task generator and the orchestrator; concrete loaders for HCL and YAML live
// in separate packages.
package config
