package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/vk/gridsweep/internal/app"
	"github.com/vk/gridsweep/internal/cli"
	"github.com/vk/gridsweep/internal/config"
	"github.com/vk/gridsweep/internal/fsutil"
	"github.com/vk/gridsweep/internal/hclconf"
	"github.com/vk/gridsweep/internal/yamlconf"
)

// documentExtensions are the experiment document formats the binary accepts.
var documentExtensions = []string{".hcl", ".yaml", ".yml"}

// main is the entrypoint for the gridsweep binary.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// A directory argument must contain exactly one experiment document.
	path, err := fsutil.ResolveDocument(appConfig.ConfigPath, documentExtensions...)
	if err != nil {
		return err
	}
	appConfig.ConfigPath = path

	loader, err := loaderForDocument(path)
	if err != nil {
		return err
	}

	// A SIGINT/SIGTERM interrupts the experiment cooperatively: tasks in
	// flight finish and the output root keeps everything produced so far.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gridsweepApp, err := app.New(ctx, outW, appConfig, loader)
	if err != nil {
		return err
	}

	return gridsweepApp.Run(ctx)
}

// loaderForDocument picks the config loader matching the document extension.
func loaderForDocument(path string) (config.Loader, error) {
	switch filepath.Ext(path) {
	case ".hcl":
		return hclconf.NewLoader(), nil
	case ".yaml", ".yml":
		return yamlconf.NewLoader(), nil
	default:
		return nil, fmt.Errorf("unsupported document extension %q (expected one of %v)", filepath.Ext(path), documentExtensions)
	}
}
