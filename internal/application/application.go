// Package application assembles the sync service from configuration. Both
// binaries start here.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JonMunkholm/estoque-sync/internal/config"
	"github.com/JonMunkholm/estoque-sync/internal/core"
	"github.com/JonMunkholm/estoque-sync/internal/events"
	"github.com/JonMunkholm/estoque-sync/internal/source"
	"github.com/JonMunkholm/estoque-sync/internal/store/memory"
	"github.com/JonMunkholm/estoque-sync/internal/store/postgres"
)

// App is a wired service plus the resources it owns.
type App struct {
	Service *core.Service

	closers []func() error
}

// New connects the configured store, Drive source and event publisher.
// Resources opened before a failure are released.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	app := &App{}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	deps := core.Deps{}

	switch strings.ToLower(cfg.Store.Driver) {
	case config.DriverMemory:
		store := memory.New()
		deps.Products, deps.Runs = store, store
		slog.Warn("using in-memory store; data is lost on exit")
	default:
		pool, err := postgres.Connect(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() error { pool.Close(); return nil })

		store, err := postgres.New(pool)
		if err != nil {
			return nil, err
		}
		if cfg.Store.ApplySchema {
			if err := store.EnsureSchema(ctx); err != nil {
				return nil, err
			}
		}
		deps.Products, deps.Runs = store, store
		slog.Info("connected to database", "name", databaseName(cfg.Store.URL))
	}

	if cfg.Drive.Enabled() {
		client, err := source.NewDriveClient(ctx, cfg.Drive.CredentialsFile)
		if err != nil {
			return nil, err
		}
		deps.Remote = source.NewDrive(client, cfg.Drive.FolderID, cfg.Drive.MimeType, cfg.Sync.MaxFileSize)
		slog.Info("drive source enabled", "folder_id", cfg.Drive.FolderID)
	}

	pub, err := events.Connect(cfg.Events)
	if err != nil {
		return nil, err
	}
	if pub != nil {
		deps.Events = pub
		app.closers = append(app.closers, pub.Close)
	}

	app.Service = core.NewService(deps, Options(cfg.Sync))
	return app, nil
}

// Options maps sync settings onto service options.
func Options(cfg config.SyncConfig) core.Options {
	return core.Options{
		PageSize:      cfg.PageSize,
		MaxConcurrent: cfg.MaxConcurrent,
		MaxWait:       cfg.MaxWaitTime,
		RunTimeout:    cfg.Timeout,
		HistorySize:   cfg.HistorySize,
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("close: %w", errors.Join(errs...))
	}
	return nil
}

func databaseName(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}
