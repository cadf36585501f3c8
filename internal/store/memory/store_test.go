package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JonMunkholm/estoque-sync/internal/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(code, store string) core.Record {
	return core.Record{Code: code, Store: store, Description: "Produto", Price: decimal.RequireFromString("9.90")}
}

func TestInsertSelectUpdate(t *testing.T) {
	ctx := context.Background()
	s := New()

	inserted, err := s.Insert(ctx, product("000001", "A"))
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	assert.NotEmpty(t, inserted[0].ID)

	_, err = s.Insert(ctx, product("000001", "B"))
	require.NoError(t, err)

	found, err := s.Select(ctx, core.KeyFilter(core.Key{Code: "000001", Store: "A"}))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, inserted[0].ID, found[0].ID)

	rec := product("000001", "A")
	rec.StockOnHand = 42
	updated, err := s.Update(ctx, rec, core.KeyFilter(rec.Key()))
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, inserted[0].ID, updated[0].ID)
	assert.Equal(t, 42, updated[0].StockOnHand)
	assert.Equal(t, 2, s.Len())
}

func TestInsert_RejectsDuplicateKey(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Insert(ctx, product("000001", "A"))
	require.NoError(t, err)

	_, err = s.Insert(ctx, product("000001", "A"))
	var dup *DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "A", dup.Key.Store)
	assert.Contains(t, err.Error(), "duplicate key")
	assert.Equal(t, "DB001", core.MapError(err).Code)
}

func TestUpdate_NoMatchReturnsNothing(t *testing.T) {
	s := New()
	rows, err := s.Update(context.Background(), product("9", "Z"), core.KeyFilter(core.Key{Code: "9", Store: "Z"}))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSelect_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	rec := product("000001", "A")
	barcode := "789"
	rec.Barcode = &barcode
	_, err := s.Insert(ctx, rec)
	require.NoError(t, err)

	found, err := s.Select(ctx, core.KeyFilter(rec.Key()))
	require.NoError(t, err)
	*found[0].Barcode = "changed"

	again, err := s.Select(ctx, core.KeyFilter(rec.Key()))
	require.NoError(t, err)
	assert.Equal(t, "789", *again[0].Barcode)
}

func TestList_NewestUpdateFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { clock = clock.Add(time.Second); return clock }

	for _, code := range []string{"1", "2", "3"} {
		_, err := s.Insert(ctx, product(code, "A"))
		require.NoError(t, err)
	}
	_, err := s.Update(ctx, product("1", "A"), core.KeyFilter(core.Key{Code: "1", Store: "A"}))
	require.NoError(t, err)

	list, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0].Code)
	assert.Equal(t, "3", list[1].Code)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Select(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.SaveRun(ctx, &core.RunSummary{ID: "r1", Source: "drive", Checksum: "aaa"}))
	require.NoError(t, s.SaveRun(ctx, &core.RunSummary{ID: "r2", Source: "upload", Checksum: "bbb"}))
	require.NoError(t, s.SaveRun(ctx, &core.RunSummary{ID: "r3", Source: "drive", Checksum: "ccc", Fatal: "source unavailable"}))
	require.NoError(t, s.SaveRun(ctx, &core.RunSummary{ID: "r4", Source: "drive", Checksum: "ddd",
		Failures: []core.RowError{{Position: 2, Reason: "connection refused"}}}))

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r4", runs[0].ID)
	assert.Equal(t, "r3", runs[1].ID)

	sum, err := s.LastChecksum(ctx, "drive")
	require.NoError(t, err)
	assert.Equal(t, "aaa", sum, "fatal runs and runs with store failures are ignored")

	sum, err = s.LastChecksum(ctx, "nowhere")
	require.NoError(t, err)
	assert.Empty(t, sum)
}
