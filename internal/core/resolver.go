package core

import (
	"context"
	"errors"
	"fmt"
)

// Operation is the store operation an Outcome refers to.
type Operation int

const (
	OpLookup Operation = iota + 1
	OpInsert
	OpUpdate
)

func (o Operation) String() string {
	switch o {
	case OpLookup:
		return "lookup"
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Outcome is the result of applying one Record. Err is nil on success and a
// *StoreFailure otherwise.
type Outcome struct {
	Op   Operation
	Data []StoredProduct
	Err  error
}

// OK reports whether the write succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Inserted reports a successful insert.
func (o Outcome) Inserted() bool { return o.OK() && o.Op == OpInsert }

// Updated reports a successful update.
func (o Outcome) Updated() bool { return o.OK() && o.Op == OpUpdate }

// Reason is the failure text without the operation prefix, empty on success.
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	var sf *StoreFailure
	if errors.As(o.Err, &sf) {
		return sf.Err.Error()
	}
	return o.Err.Error()
}

// Label is the API name of the outcome: produto_inserido or
// produto_atualizado on success, and the attempted operation (inserir,
// atualizar, consultar) on failure.
func (o Outcome) Label() string {
	if o.OK() {
		switch o.Op {
		case OpInsert:
			return "produto_inserido"
		case OpUpdate:
			return "produto_atualizado"
		}
	}
	switch o.Op {
	case OpInsert:
		return "inserir"
	case OpUpdate:
		return "atualizar"
	case OpLookup:
		return "consultar"
	default:
		return ""
	}
}

// Resolver applies records to a ProductStore keyed by (code, store).
// It holds no per-call state and is safe for concurrent use; calls for the
// same key are serialized.
type Resolver struct {
	store ProductStore
	locks *keyLock
}

// NewResolver returns a Resolver writing to store.
func NewResolver(store ProductStore) *Resolver {
	return &Resolver{store: store, locks: newKeyLock()}
}

// Apply updates the product matching rec's key, or inserts rec when there is
// none. Store errors are returned inside the Outcome, never as panics.
func (r *Resolver) Apply(ctx context.Context, rec Record) Outcome {
	unlock := r.locks.Lock(rec.Key())
	defer unlock()

	filter := KeyFilter(rec.Key())

	existing, err := r.store.Select(ctx, filter)
	if err != nil {
		return failure(OpLookup, fmt.Errorf("select %s: %w", rec.Key(), err))
	}

	if len(existing) > 0 {
		// The update stays scoped to the key rather than existing[0].ID.
		rows, err := r.store.Update(ctx, rec, filter)
		return classify(OpUpdate, rows, err)
	}

	rows, err := r.store.Insert(ctx, rec)
	return classify(OpInsert, rows, err)
}

// Insert writes rec as a new product without looking for an existing one.
func (r *Resolver) Insert(ctx context.Context, rec Record) Outcome {
	unlock := r.locks.Lock(rec.Key())
	defer unlock()

	rows, err := r.store.Insert(ctx, rec)
	return classify(OpInsert, rows, err)
}

func classify(op Operation, rows []StoredProduct, err error) Outcome {
	if err != nil {
		return failure(op, err)
	}
	if len(rows) == 0 {
		return failure(op, ErrNoRowsAffected)
	}
	return Outcome{Op: op, Data: rows}
}

func failure(op Operation, err error) Outcome {
	return Outcome{Op: op, Err: &StoreFailure{Op: op, Err: err}}
}
