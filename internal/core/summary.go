package core

import (
	"errors"
	"time"
)

// RowError is a row that did not make it into the store.
type RowError struct {
	Position  int    `json:"row"`
	Code      string `json:"codigo,omitempty"`
	Field     string `json:"field,omitempty"`
	Operation string `json:"operacao,omitempty"`
	Reason    string `json:"reason"`
}

// RunSummary aggregates one batch run. It is owned by the orchestrator until
// Run returns.
type RunSummary struct {
	ID         string     `json:"run_id"`
	Source     string     `json:"source"`
	FileName   string     `json:"file_name,omitempty"`
	Checksum   string     `json:"checksum,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Processed  int        `json:"processed"`
	Inserted   int        `json:"inserted"`
	Updated    int        `json:"updated"`
	Skipped    []RowError `json:"skipped"`
	Failures   []RowError `json:"failures"`
	Fatal      string     `json:"fatal,omitempty"`

	fatalErr error
}

// Succeeded reports whether the run completed without a fatal error. Rows
// may still have been skipped or failed.
func (s *RunSummary) Succeeded() bool {
	return s.Fatal == ""
}

// Complete reports whether every extracted row reached the store: no fatal
// error and no store failures. Skipped rows do not count, since rerunning the
// same file cannot fix them.
func (s *RunSummary) Complete() bool {
	return s.Succeeded() && len(s.Failures) == 0
}

// Err returns the fatal error, if any.
func (s *RunSummary) Err() error {
	if s.fatalErr != nil {
		return s.fatalErr
	}
	if s.Fatal != "" {
		return errors.New(s.Fatal)
	}
	return nil
}

// Duration is the wall time of the run.
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// fail marks the run as fatally failed.
func (s *RunSummary) fail(err error) {
	s.fatalErr = err
	s.Fatal = err.Error()
}

func (s *RunSummary) skip(row Row, err error) {
	re := RowError{Position: row.Position, Reason: err.Error()}
	var ee *ExtractionError
	if errors.As(err, &ee) {
		re.Field = ee.Field
	}
	if code, ok := cellString(row.Values[ColCode]); ok {
		re.Code = code
	}
	s.Skipped = append(s.Skipped, re)
}

func (s *RunSummary) record(position int, rec Record, out Outcome) {
	switch {
	case out.Inserted():
		s.Inserted++
	case out.Updated():
		s.Updated++
	default:
		s.Failures = append(s.Failures, RowError{
			Position:  position,
			Code:      rec.Code,
			Operation: out.Label(),
			Reason:    out.Reason(),
		})
	}
}
