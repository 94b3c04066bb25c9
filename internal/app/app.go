package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vk/gridsweep/internal/config"
	"github.com/vk/gridsweep/internal/ctxlog"
	"github.com/vk/gridsweep/internal/experiment"
	"github.com/vk/gridsweep/internal/registry"
)

// Config holds everything an App instance needs to run one invocation.
type Config struct {
	// ConfigPath names the experiment document, or a directory holding
	// exactly one.
	ConfigPath string
	LogFormat  string
	LogLevel   string
	// StatusPort enables the HTTP status server when positive.
	StatusPort int

	// Overrides; zero means "use the document's value".
	Jobs      int
	Runs      int
	OutputDir string
}

// Plugin contributes declarations (category roots, items, entry points) to a
// registry set at startup.
type Plugin interface {
	Name() string
	Register(set *registry.Set) error
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	set    *registry.Set
	cfg    *config.Experiment
	appCfg *Config

	mu         sync.Mutex
	orch       *experiment.Orchestrator
	httpServer *http.Server
}

// New constructs a fully initialized App: it builds the logger, registers
// every plugin into a fresh registry set, loads the experiment document via
// the given loader, and applies command-line overrides. Plugins default to
// the built-in set when none are passed.
func New(ctx context.Context, outW io.Writer, appCfg *Config, loader config.Loader, plugins ...Plugin) (*App, error) {
	logger := newLogger(appCfg.LogLevel, appCfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	set := registry.NewSet()
	if len(plugins) == 0 {
		plugins = corePlugins
	}
	for _, plugin := range plugins {
		if err := plugin.Register(set); err != nil {
			return nil, fmt.Errorf("plugin %q failed to register: %w", plugin.Name(), err)
		}
	}
	logger.Debug("All plugins registered.", "count", len(plugins), "categories", set.Categories())

	cfg, err := loader.Load(ctx, appCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded into unified model.", "path", appCfg.ConfigPath)

	applyOverrides(cfg, appCfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &App{
		outW:   outW,
		logger: logger,
		set:    set,
		cfg:    cfg,
		appCfg: appCfg,
	}, nil
}

// Set returns the application's registry set. This is primarily for testing.
func (a *App) Set() *registry.Set { return a.set }

// Experiment returns the loaded experiment configuration.
func (a *App) Experiment() *config.Experiment { return a.cfg }

// applyOverrides folds non-zero command-line values over the document.
func applyOverrides(cfg *config.Experiment, appCfg *Config) {
	if appCfg.Jobs > 0 {
		cfg.NbJobs = appCfg.Jobs
	}
	if appCfg.Runs > 0 {
		cfg.NbRuns = appCfg.Runs
	}
	if appCfg.OutputDir != "" {
		cfg.OutputDir = appCfg.OutputDir
	}
}
