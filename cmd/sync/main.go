// Command sync runs one batch: a local spreadsheet given with -file, or the
// newest file in the configured Drive folder.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/JonMunkholm/estoque-sync/internal/application"
	"github.com/JonMunkholm/estoque-sync/internal/config"
	"github.com/JonMunkholm/estoque-sync/internal/core"
	"github.com/JonMunkholm/estoque-sync/internal/logging"
	"github.com/JonMunkholm/estoque-sync/internal/source"
	"github.com/joho/godotenv"
)

// fileSource names runs started from a local file.
const fileSource = "cli"

func main() {
	os.Exit(run())
}

func run() int {
	file := flag.String("file", "", "path to an .xlsx or .csv file; the Drive folder is used when empty")
	force := flag.Bool("force", false, "sync the Drive file even if it is unchanged")
	asJSON := flag.Bool("json", false, "print the run summary as JSON on stdout")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}

	closeLogs, err := logging.Setup(cfg.Logging)
	if err != nil {
		slog.Error("failed to set up logging", "error", err)
		return 1
	}
	defer closeLogs()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := application.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to start application", "error", err)
		return 1
	}
	defer app.Close()

	summary, err := syncOnce(ctx, app.Service, *file, *force)
	switch {
	case errors.Is(err, core.ErrUnchanged):
		slog.Info("drive file unchanged since last run; use -force to sync anyway")
		return 0
	case err != nil:
		slog.Error("sync failed", "error", err, "hint", core.FormatUserError(err))
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			slog.Error("encode summary", "error", err)
		}
	}

	slog.Info("sync finished",
		"run_id", summary.ID,
		"source", summary.Source,
		"file", summary.FileName,
		"processed", summary.Processed,
		"inserted", summary.Inserted,
		"updated", summary.Updated,
		"skipped", len(summary.Skipped),
		"failed", len(summary.Failures),
		"duration", summary.Duration().String(),
	)
	if !summary.Succeeded() {
		slog.Error("sync aborted", "error", summary.Fatal)
		return 1
	}
	return 0
}

func syncOnce(ctx context.Context, svc *core.Service, path string, force bool) (*core.RunSummary, error) {
	if path == "" {
		return svc.SyncRemote(ctx, force)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	src, err := source.Open(fileSource, filepath.Base(path), data)
	if err != nil {
		return nil, err
	}
	return svc.RunBatch(ctx, src)
}
