package core

import (
	"context"
	"time"
)

// Row is one raw spreadsheet row. Values is keyed by canonical column key; a
// nil value is a null cell and a missing key is a column the sheet lacks.
type Row struct {
	Position int
	Values   map[string]any
}

// RowSource yields the rows of one tabular dataset.
type RowSource interface {
	// Name identifies the source in logs and run history.
	Name() string
	// Rows returns every data row in sheet order. An error here is fatal to
	// the run and should wrap ErrSourceUnavailable.
	Rows(ctx context.Context) ([]Row, error)
}

// Predicate is one equality condition on a wire field name.
type Predicate struct {
	Field string
	Value string
}

// Filter is a conjunction of equality predicates.
type Filter []Predicate

// KeyFilter matches the business key of a product.
func KeyFilter(k Key) Filter {
	return Filter{
		{Field: "codigo", Value: k.Code},
		{Field: "loja", Value: k.Store},
	}
}

// Matches reports whether p satisfies every predicate. Unknown fields never
// match, and neither does an empty filter.
func (f Filter) Matches(p StoredProduct) bool {
	if len(f) == 0 {
		return false
	}
	for _, pred := range f {
		v, ok := p.Field(pred.Field)
		if !ok || v != pred.Value {
			return false
		}
	}
	return true
}

// Field returns the string form of a filterable wire field.
func (p StoredProduct) Field(name string) (string, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "codigo":
		return p.Code, true
	case "loja":
		return p.Store, true
	case "estado":
		return p.State, true
	case "descricao":
		return p.Description, true
	case "cod_barra":
		if p.Barcode == nil {
			return "", false
		}
		return *p.Barcode, true
	default:
		return "", false
	}
}

// ProductStore persists products. Insert and Update return the rows they
// wrote; an empty result with a nil error is an ambiguous success.
type ProductStore interface {
	Select(ctx context.Context, f Filter) ([]StoredProduct, error)
	Insert(ctx context.Context, rec Record) ([]StoredProduct, error)
	Update(ctx context.Context, rec Record, f Filter) ([]StoredProduct, error)
	List(ctx context.Context, limit int) ([]StoredProduct, error)
}

// Pinger is implemented by stores that can report whether their backend
// answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RunStore keeps the history of batch runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *RunSummary) error
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	// LastChecksum returns the checksum of the newest complete run from
	// source (see RunSummary.Complete), or "" if there is none.
	LastChecksum(ctx context.Context, source string) (string, error)
}

// EventPublisher announces finished runs.
type EventPublisher interface {
	PublishRun(ctx context.Context, run *RunSummary) error
}

// SourceInfo is implemented by sources that know which file they read.
type SourceInfo interface {
	FileName() string
	// Checksum fingerprints the file content, letting pollers skip a file
	// that has not changed.
	Checksum() string
}

// RemoteSource locates and downloads a dataset. Each Fetch returns a fresh
// snapshot so concurrent runs never share content.
type RemoteSource interface {
	Name() string
	Fetch(ctx context.Context) (RowSource, error)
}

// Clock returns the current time. Tests replace it.
type Clock func() time.Time
