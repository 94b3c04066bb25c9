package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/gridsweep/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("gridsweep", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
gridsweep - a combinatorial experiment runner for registered plugins.

Usage:
  gridsweep [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to an experiment document (.hcl, .yaml or .yml), or a directory
    containing exactly one.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the experiment document or directory.")
	cFlag := flagSet.String("c", "", "Path to the experiment document or directory (shorthand).")
	statusPortFlag := flagSet.Int("status-port", 0, "Port for the HTTP status server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	jobsFlag := flagSet.Int("jobs", 0, "Override the document's nb_jobs. 0 keeps the document's value.")
	runsFlag := flagSet.Int("runs", 0, "Override the document's nb_runs. 0 keeps the document's value.")
	outputFlag := flagSet.String("output", "", "Override the document's output_dir.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *configFlag != "" {
		path = *configFlag
	} else if *cFlag != "" {
		path = *cFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Config path determined.", "path", path)

	if path == "" {
		slog.Debug("No config path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *jobsFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid jobs: must not be negative"}
	}
	if *runsFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid runs: must not be negative"}
	}
	slog.Debug("CLI parameter validation complete.")

	config := &app.Config{
		ConfigPath: path,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
		StatusPort: *statusPortFlag,
		Jobs:       *jobsFlag,
		Runs:       *runsFlag,
		OutputDir:  *outputFlag,
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
