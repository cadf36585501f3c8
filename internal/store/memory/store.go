// Package memory implements core.ProductStore and core.RunStore in process.
// It backs tests and STORE_DRIVER=memory; nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/estoque-sync/internal/core"
	"github.com/google/uuid"
)

// Store is a mutex-guarded product table plus run history.
type Store struct {
	mu       sync.RWMutex
	products []core.StoredProduct
	runs     []core.RunSummary
	now      func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{now: time.Now}
}

// Select returns copies of every product matching f, in insertion order.
func (s *Store) Select(ctx context.Context, f core.Filter) ([]core.StoredProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.StoredProduct
	for _, p := range s.products {
		if f.Matches(p) {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

// Insert appends rec with a fresh id. Like the Postgres table it rejects a
// second product for the same (codigo, loja).
func (s *Store) Insert(ctx context.Context, rec core.Record) ([]core.StoredProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := core.KeyFilter(rec.Key())
	for _, p := range s.products {
		if key.Matches(p) {
			return nil, &DuplicateKeyError{Key: rec.Key()}
		}
	}

	p := core.StoredProduct{
		ID:        uuid.NewString(),
		Record:    rec,
		UpdatedAt: s.now(),
	}
	s.products = append(s.products, p)
	return []core.StoredProduct{clone(p)}, nil
}

// Update overwrites every product matching f with rec, keeping ids.
func (s *Store) Update(ctx context.Context, rec core.Record, f core.Filter) ([]core.StoredProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.StoredProduct
	for i := range s.products {
		if !f.Matches(s.products[i]) {
			continue
		}
		s.products[i].Record = rec
		s.products[i].UpdatedAt = s.now()
		out = append(out, clone(s.products[i]))
	}
	return out, nil
}

// List returns up to limit products, most recently updated first.
func (s *Store) List(ctx context.Context, limit int) ([]core.StoredProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]core.StoredProduct, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, clone(p))
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the number of stored products.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// clone copies p so callers cannot alias the barcode pointer.
func clone(p core.StoredProduct) core.StoredProduct {
	if p.Barcode != nil {
		b := *p.Barcode
		p.Barcode = &b
	}
	return p
}

// DuplicateKeyError mirrors a unique violation on (codigo, loja).
type DuplicateKeyError struct {
	Key core.Key
}

func (e *DuplicateKeyError) Error() string {
	return "duplicate key value violates unique constraint (codigo, loja)=(" + e.Key.Code + ", " + e.Key.Store + ")"
}
