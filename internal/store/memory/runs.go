package memory

import (
	"context"

	"github.com/JonMunkholm/estoque-sync/internal/core"
)

// SaveRun appends a copy of run to the history.
func (s *Store) SaveRun(ctx context.Context, run *core.RunSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cp := *run
	cp.Skipped = append([]core.RowError{}, run.Skipped...)
	cp.Failures = append([]core.RowError{}, run.Failures...)

	s.mu.Lock()
	s.runs = append(s.runs, cp)
	s.mu.Unlock()
	return nil
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]core.RunSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.RunSummary, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.runs[i])
	}
	return out, nil
}

// LastChecksum returns the checksum of the newest complete run from source.
func (s *Store) LastChecksum(ctx context.Context, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.runs) - 1; i >= 0; i-- {
		r := s.runs[i]
		if r.Source == source && r.Complete() {
			return r.Checksum, nil
		}
	}
	return "", nil
}
