package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/builder"
	"github.com/specialistvlad/assetgrid/internal/buildlog"
	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
	"github.com/specialistvlad/assetgrid/internal/hclstore"
	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/specialistvlad/assetgrid/internal/sqlitestore"
	"github.com/specialistvlad/assetgrid/internal/trackerstore"
)

// Version is reported by the CLI and in traces.
var Version = "dev"

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	loader   config.Loader
	config   *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Without modules the core processors are registered.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.NewWithModules(modules...)
	logger.Debug("All processor modules registered.", "count", len(modules), "processors", reg.Names())

	// A registry that describes itself inconsistently is a programmer error.
	if err := reg.ValidateRegistry(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		loader:   loader,
		config:   appConfig,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// loadManifest reads the configured manifest.
func (a *App) loadManifest(ctx context.Context) (*asset.Manifest, error) {
	m, err := a.loader.Load(ctx, a.config.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	if a.config.ContentRoot != "" {
		m.ContentRoot = a.config.ContentRoot
	}
	a.logger.Debug("Manifest loaded.", "assets", m.Len(), "content_root", m.ContentRoot)
	return m, nil
}

func (a *App) newStore(contentRoot string) trackerstore.Store {
	p := a.config.trackerPath(contentRoot)
	if a.config.TrackerFormat == TrackerSQLite {
		return sqlitestore.New(p)
	}
	return hclstore.New(p)
}

func (a *App) newBuilder(m *asset.Manifest, bus *buildlog.Bus) *builder.Builder {
	return builder.New(a.registry, a.newStore(m.ContentRoot), bus, builder.Options{
		Workers:     a.config.Workers,
		FailFast:    a.config.FailFast,
		HashMode:    a.config.HashMode(),
		ToolModTime: fsutil.ExecutableModTime(),
	})
}

func (a *App) request() (builder.Request, error) {
	set, err := a.config.BuildParameters()
	if err != nil {
		return builder.Request{}, err
	}
	return builder.Request{
		OutputFolder:    a.config.OutputPath,
		Parameters:      set,
		ForceRebuildAll: a.config.Force,
	}, nil
}
