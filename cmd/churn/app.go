package main

import (
	"context"
	"fmt"

	"github.com/JaimeStill/churn/internal/artifacts"
	"github.com/JaimeStill/churn/internal/config"
	"github.com/JaimeStill/churn/internal/infrastructure"
	"github.com/JaimeStill/churn/internal/orders"
	"github.com/JaimeStill/churn/internal/pipeline"
)

// App binds configuration to the started infrastructure for one command.
type App struct {
	cfg   *config.Config
	infra *infrastructure.Infrastructure
}

func NewApp(cfg *config.Config) (*App, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	infra.Logger.Info(
		"churn initialized",
		"version", Version,
		"env", cfg.Env(),
		"source", cfg.Source.Kind,
		"database", infra.Database != nil,
		"storage", infra.Storage != nil,
	)

	return &App{cfg: cfg, infra: infra}, nil
}

func (a *App) Start() error {
	return a.infra.Start()
}

func (a *App) Shutdown() {
	if err := a.infra.Shutdown(a.cfg); err != nil {
		a.infra.Logger.Error("shutdown failed", "error", err)
	}
}

// Source returns the configured order source.
func (a *App) Source() (orders.Source, error) {
	switch a.cfg.Source.Kind {
	case config.SourceDatabase:
		if a.infra.Database == nil {
			return nil, fmt.Errorf("%w: database source without database configuration", config.ErrInvalidConfiguration)
		}
		return orders.NewSQL(a.infra.Database, a.cfg.Source.Table, a.infra.Logger), nil
	default:
		return orders.NewCSV(a.cfg.Source.Path, a.infra.Logger), nil
	}
}

// WriteStore saves to the local artifact directory and mirrors to blob
// storage when configured.
func (a *App) WriteStore() artifacts.Store {
	local := artifacts.NewLocal(a.cfg.Artifacts.Dir)
	if a.infra.Storage == nil {
		return local
	}
	return artifacts.Mirror(local, artifacts.NewBlob(a.infra.Storage, ""))
}

// LoadBundle reads the bundle from the remote source (blob storage, then the
// HTTP URL) and falls back to the local directory.
func (a *App) LoadBundle(ctx context.Context) (*artifacts.Bundle, error) {
	var remote artifacts.Store
	switch {
	case a.infra.Storage != nil:
		remote = artifacts.NewBlob(a.infra.Storage, "")
	case a.cfg.Artifacts.RemoteURL != "":
		store, err := artifacts.NewHTTP(
			a.cfg.Artifacts.RemoteURL,
			a.cfg.Artifacts.FetchTimeoutDuration(),
			a.cfg.Artifacts.MaxBundleBytes(),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: artifacts: %w", config.ErrInvalidConfiguration, err)
		}
		remote = store
	}

	return artifacts.LoadWithFallback(ctx, remote, artifacts.NewLocal(a.cfg.Artifacts.Dir), a.infra.Logger)
}

// Registry returns the run registry, or nil without a database.
func (a *App) Registry() pipeline.Registry {
	if a.infra.Database == nil {
		return nil
	}
	return pipeline.NewRegistry(a.infra.Database)
}

// run loads configuration, applies overrides, starts the infrastructure, and
// calls fn. Shutdown always runs.
func run(ctx context.Context, override func(*config.Config) error, fn func(context.Context, *App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if override != nil {
		if err := override(cfg); err != nil {
			return err
		}
	}

	app, err := NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Shutdown()

	if err := app.Start(); err != nil {
		return err
	}
	return fn(ctx, app)
}
