package core

// scheduler.go polls the remote source on a fixed interval.
//
// Each tick fetches the newest file and runs a batch unless the checksum
// matches the last successful run. Failures are logged and the poller keeps
// going; it only stops when its context is cancelled.

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// StartRemotePoller runs SyncRemote immediately and then every interval
// until ctx is cancelled. It blocks; run it in its own goroutine.
func (s *Service) StartRemotePoller(ctx context.Context, interval time.Duration) {
	slog.Info("remote poller started", "interval", interval.String())

	s.pollOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("remote poller stopped")
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

// pollOnce runs one poll cycle. A panic in a run is logged rather than
// taking the process down.
func (s *Service) pollOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("remote poll panicked", "panic", r)
		}
	}()

	start := time.Now()
	summary, err := s.SyncRemote(ctx, false)
	switch {
	case errors.Is(err, ErrUnchanged):
		slog.Debug("remote file unchanged, skipping run")
	case errors.Is(err, ErrTooManyRuns):
		slog.Warn("remote poll skipped, another run is active")
	case err != nil:
		slog.Error("remote poll failed", "error", err)
	case !summary.Succeeded():
		slog.Error("remote run failed", "run_id", summary.ID, "error", summary.Fatal)
	default:
		slog.Info("remote run completed",
			"run_id", summary.ID,
			"file", summary.FileName,
			"inserted", summary.Inserted,
			"updated", summary.Updated,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
