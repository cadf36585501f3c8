package core

import (
	"context"
	"errors"
	"time"

	"github.com/JonMunkholm/estoque-sync/internal/logging"
	"github.com/google/uuid"
)

// Orchestrator runs batches: it pulls rows from a RowSource and applies them
// one at a time, in source order, through a Resolver.
type Orchestrator struct {
	resolver *Resolver
	now      Clock
}

// NewOrchestrator returns an Orchestrator applying rows through resolver.
func NewOrchestrator(resolver *Resolver) *Orchestrator {
	return &Orchestrator{resolver: resolver, now: time.Now}
}

// Run processes every row of src and returns the finished summary.
//
// A row that fails extraction or store application is recorded and the loop
// moves on. Only a source that cannot produce rows, or a cancelled ctx,
// stops the run early; both set RunSummary.Fatal.
func (o *Orchestrator) Run(ctx context.Context, src RowSource) *RunSummary {
	summary := &RunSummary{
		ID:        uuid.NewString(),
		Source:    src.Name(),
		StartedAt: o.now(),
		Skipped:   []RowError{},
		Failures:  []RowError{},
	}
	logger := logging.WithFields(ctx, "run_id", summary.ID, "source", summary.Source)
	defer func() { summary.FinishedAt = o.now() }()

	rows, err := src.Rows(ctx)
	if err != nil {
		if !errors.Is(err, ErrSourceUnavailable) {
			err = SourceUnavailable(src.Name(), err)
		}
		logger.Error("sync run aborted", "error", err)
		summary.fail(err)
		return summary
	}

	if info, ok := src.(SourceInfo); ok {
		summary.FileName = info.FileName()
		summary.Checksum = info.Checksum()
	}

	logger.Info("sync run started", "rows", len(rows), "file", summary.FileName)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			logger.Warn("sync run cancelled", "row", row.Position, "error", err)
			summary.fail(err)
			return summary
		}

		summary.Processed++

		rec, err := Extract(row)
		if err != nil {
			logger.Warn("row skipped", "row", row.Position, "error", err)
			summary.skip(row, err)
			continue
		}

		out := o.resolver.Apply(ctx, rec)
		summary.record(row.Position, rec, out)

		if out.OK() {
			logger.Info("row synced", "row", row.Position, "codigo", rec.Code, "loja", rec.Store, "operacao", out.Label())
		} else {
			logger.Warn("row failed", "row", row.Position, "codigo", rec.Code, "loja", rec.Store, "operacao", out.Label(), "error", out.Reason())
		}
	}

	logger.Info("sync run finished",
		"processed", summary.Processed,
		"inserted", summary.Inserted,
		"updated", summary.Updated,
		"skipped", len(summary.Skipped),
		"failed", len(summary.Failures),
	)

	return summary
}
