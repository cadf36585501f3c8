package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/estoque-sync/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const runColumns = `id, source, file_name, checksum, started_at, finished_at, processed, inserted, updated, skipped, failures, fatal`

// SaveRun records a finished run. Row errors are stored as JSONB.
func (s *Store) SaveRun(ctx context.Context, run *core.RunSummary) error {
	id := toPgUUID(run.ID)
	if !id.Valid {
		return fmt.Errorf("save run: invalid run id %q", run.ID)
	}

	query := `INSERT INTO sync_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.db.Exec(ctx, query,
		id,
		run.Source,
		run.FileName,
		run.Checksum,
		run.StartedAt,
		run.FinishedAt,
		run.Processed,
		run.Inserted,
		run.Updated,
		nonNil(run.Skipped),
		nonNil(run.Failures),
		run.Fatal,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]core.RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs ORDER BY started_at DESC LIMIT $1`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	runs, err := pgx.CollectRows(rows, scanRun)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// LastChecksum returns the checksum of the newest run from source that had
// neither a fatal error nor a store failure.
func (s *Store) LastChecksum(ctx context.Context, source string) (string, error) {
	query := `SELECT checksum FROM sync_runs
		WHERE source = $1 AND fatal = '' AND jsonb_array_length(failures) = 0
		ORDER BY started_at DESC LIMIT 1`

	var checksum string
	err := s.db.QueryRow(ctx, query, source).Scan(&checksum)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("last checksum for %s: %w", source, err)
	}
	return checksum, nil
}

func scanRun(row pgx.CollectableRow) (core.RunSummary, error) {
	var (
		r  core.RunSummary
		id pgtype.UUID
	)
	err := row.Scan(
		&id,
		&r.Source,
		&r.FileName,
		&r.Checksum,
		&r.StartedAt,
		&r.FinishedAt,
		&r.Processed,
		&r.Inserted,
		&r.Updated,
		&r.Skipped,
		&r.Failures,
		&r.Fatal,
	)
	if err != nil {
		return core.RunSummary{}, fmt.Errorf("scan run: %w", err)
	}
	r.ID = pgUUIDToString(id)
	return r, nil
}

func nonNil(rows []core.RowError) []core.RowError {
	if rows == nil {
		return []core.RowError{}
	}
	return rows
}
