package core

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// fakeStore is a ProductStore with injectable failures.
type fakeStore struct {
	mu       sync.Mutex
	products []StoredProduct
	nextID   int

	selectErr   error
	insertErr   error
	updateErr   error
	emptyWrites bool // succeed but return no rows

	selects, inserts, updates int
	lastUpdate                Filter
}

func (s *fakeStore) Select(_ context.Context, f Filter) ([]StoredProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selects++
	if s.selectErr != nil {
		return nil, s.selectErr
	}
	var out []StoredProduct
	for _, p := range s.products {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) Insert(_ context.Context, rec Record) ([]StoredProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	if s.emptyWrites {
		return nil, nil
	}
	s.nextID++
	p := StoredProduct{ID: strconv.Itoa(s.nextID), Record: rec, UpdatedAt: time.Now()}
	s.products = append(s.products, p)
	return []StoredProduct{p}, nil
}

func (s *fakeStore) Update(_ context.Context, rec Record, f Filter) ([]StoredProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	s.lastUpdate = f
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	if s.emptyWrites {
		return nil, nil
	}
	var out []StoredProduct
	for i := range s.products {
		if f.Matches(s.products[i]) {
			s.products[i].Record = rec
			out = append(out, s.products[i])
		}
	}
	return out, nil
}

func (s *fakeStore) List(_ context.Context, limit int) ([]StoredProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.products) {
		limit = len(s.products)
	}
	return append([]StoredProduct(nil), s.products[:limit]...), nil
}

func (s *fakeStore) count(k Key) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.products {
		if p.Key() == k {
			n++
		}
	}
	return n
}

// sliceSource is a RowSource over fixed rows.
type sliceSource struct {
	name string
	rows []Row
	err  error
}

func (s sliceSource) Name() string { return s.name }

func (s sliceSource) Rows(context.Context) ([]Row, error) {
	return s.rows, s.err
}

// fullRow returns a complete row for code and store with a price.
func fullRow(pos int, code, store string, price any) Row {
	return Row{Position: pos, Values: map[string]any{
		ColState:       "SP",
		ColCode:        code,
		ColBarcode:     "7891000100103",
		ColDescription: "Produto " + code,
		ColStockLocal:  "3",
		ColStockOnHand: "10",
		ColPrice:       price,
		ColStockMin:    "1",
		ColStockMax:    "20",
		ColStore:       store,
	}}
}
