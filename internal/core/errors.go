package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSourceUnavailable marks a failure to obtain the row sequence at all.
// It is fatal to a run.
var ErrSourceUnavailable = errors.New("source unavailable")

// ErrNoRowsAffected is the reason recorded when a store reports success but
// returns no rows.
var ErrNoRowsAffected = errors.New("no rows affected")

// ExtractionKind classifies why a row could not become a Record.
type ExtractionKind int

const (
	MissingField ExtractionKind = iota + 1
	TypeCoercionFailure
	InvalidValue
)

func (k ExtractionKind) String() string {
	switch k {
	case MissingField:
		return "missing_field"
	case TypeCoercionFailure:
		return "type_coercion_failure"
	case InvalidValue:
		return "invalid_value"
	default:
		return "unknown"
	}
}

// ExtractionError is a per-row failure. The row is skipped and the batch
// continues.
type ExtractionError struct {
	Kind     ExtractionKind
	Position int
	Field    string
	Reason   string
}

func (e *ExtractionError) Error() string {
	switch e.Kind {
	case MissingField:
		return fmt.Sprintf("row %d: missing required column %q", e.Position, e.Field)
	case TypeCoercionFailure:
		return fmt.Sprintf("row %d: invalid %s: %s", e.Position, e.Field, e.Reason)
	default:
		return fmt.Sprintf("row %d: %s: %s", e.Position, e.Field, e.Reason)
	}
}

// ValidationError describes one broken rule on a Record.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s %q %s", e.Field, e.Value, e.Message)
	}
	return e.Field + " " + e.Message
}

// StoreFailure wraps an error returned by a ProductStore for one operation.
type StoreFailure struct {
	Op  Operation
	Err error
}

func (e *StoreFailure) Error() string {
	return e.Op.String() + ": " + e.Err.Error()
}

func (e *StoreFailure) Unwrap() error { return e.Err }

// SourceError reports a source that could not be listed, opened or read.
// It matches ErrSourceUnavailable with errors.Is.
type SourceError struct {
	Source string
	Err    error
}

// SourceUnavailable wraps err as a SourceError for the named source.
func SourceUnavailable(source string, err error) error {
	return &SourceError{Source: source, Err: err}
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source unavailable: %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// fieldErrors flattens a joined validation error into its messages.
func fieldErrors(err error) string {
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		return err.Error()
	}
	parts := make([]string, 0, len(joined.Unwrap()))
	for _, e := range joined.Unwrap() {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}
