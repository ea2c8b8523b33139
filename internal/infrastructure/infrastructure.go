// Package infrastructure provides core system initialization for a pipeline run.
// It assembles the common dependencies (logging, database, storage) that the
// order source, run registry, and artifact store require.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JaimeStill/churn/internal/config"
	"github.com/JaimeStill/churn/pkg/database"
	"github.com/JaimeStill/churn/pkg/lifecycle"
	"github.com/JaimeStill/churn/pkg/storage"
)

// Infrastructure holds the core systems shared by the pipeline commands.
// Database and Storage are nil when their config sections are not configured.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System

	logCloser io.Closer
}

// New creates an Infrastructure from the application configuration.
// It initializes all configured systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger, closer := NewLogger(&cfg.Logging, os.Stderr)

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		logCloser: closer,
	}

	if cfg.Database.Configured() {
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			closer.Close()
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	if cfg.Storage.Configured() {
		store, err := storage.New(&cfg.Storage, logger)
		if err != nil {
			closer.Close()
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		infra.Storage = store
	}

	return infra, nil
}

// Start registers the configured systems with the lifecycle coordinator and
// waits for their startup hooks. A failed database ping or container creation
// aborts the run before any computation.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}

	i.Lifecycle.OnShutdown(func() {
		<-i.Lifecycle.Context().Done()
		i.logCloser.Close()
	})

	return i.Lifecycle.WaitForStartup()
}

// Shutdown cancels the lifecycle context and waits for shutdown hooks.
func (i *Infrastructure) Shutdown(cfg *config.Config) error {
	return i.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())
}
