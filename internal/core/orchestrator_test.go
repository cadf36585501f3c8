package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrchestratorRun_SkipsBadRowAndContinues(t *testing.T) {
	bad := fullRow(4, "3", "A", "1")
	delete(bad.Values, ColPrice)

	src := sliceSource{name: "test", rows: []Row{
		fullRow(2, "1", "A", "1"),
		fullRow(3, "2", "A", "1"),
		bad,
		fullRow(5, "4", "A", "1"),
		fullRow(6, "5", "A", "1"),
	}}
	store := &fakeStore{}

	summary := NewOrchestrator(NewResolver(store)).Run(context.Background(), src)

	assert.True(t, summary.Succeeded())
	assert.Equal(t, 5, summary.Processed)
	assert.Equal(t, 4, summary.Inserted)
	assert.Zero(t, summary.Updated)
	require.Len(t, summary.Skipped, 1)
	assert.Equal(t, 4, summary.Skipped[0].Position)
	assert.Equal(t, "preço", summary.Skipped[0].Field)
	assert.Equal(t, "3", summary.Skipped[0].Code)
	assert.Empty(t, summary.Failures)
	assert.Equal(t, 4, store.inserts)
	assert.NotEmpty(t, summary.ID)
	assert.False(t, summary.FinishedAt.Before(summary.StartedAt))
}

func TestOrchestratorRun_InsertThenUpdateInSourceOrder(t *testing.T) {
	src := sliceSource{name: "test", rows: []Row{
		fullRow(2, "10", "A", "1"),
		fullRow(3, "10", "A", "2"),
	}}
	store := &fakeStore{}

	summary := NewOrchestrator(NewResolver(store)).Run(context.Background(), src)

	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, store.count(Key{Code: "000010", Store: "A"}))
	assert.Equal(t, "2", store.products[0].Price.String())
}

func TestOrchestratorRun_StoreFailureIsRecorded(t *testing.T) {
	src := sliceSource{name: "test", rows: []Row{fullRow(2, "1", "A", "1"), fullRow(3, "2", "A", "1")}}
	store := &fakeStore{insertErr: errors.New("duplicate key")}

	summary := NewOrchestrator(NewResolver(store)).Run(context.Background(), src)

	assert.True(t, summary.Succeeded())
	assert.Equal(t, 2, summary.Processed)
	require.Len(t, summary.Failures, 2)
	assert.Equal(t, "inserir", summary.Failures[0].Operation)
	assert.Equal(t, "duplicate key", summary.Failures[0].Reason)
	assert.Equal(t, "000001", summary.Failures[0].Code)
}

func TestOrchestratorRun_SourceUnavailableIsFatal(t *testing.T) {
	src := sliceSource{name: "drive", err: errors.New("folder not found")}

	summary := NewOrchestrator(NewResolver(&fakeStore{})).Run(context.Background(), src)

	assert.False(t, summary.Succeeded())
	assert.ErrorIs(t, summary.Err(), ErrSourceUnavailable)
	assert.Contains(t, summary.Fatal, "folder not found")
	assert.Zero(t, summary.Processed)
	assert.Empty(t, summary.Skipped)
}

func TestOrchestratorRun_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := sliceSource{name: "test", rows: []Row{fullRow(2, "1", "A", "1")}}
	store := &fakeStore{}

	summary := NewOrchestrator(NewResolver(store)).Run(ctx, src)

	assert.False(t, summary.Succeeded())
	assert.ErrorIs(t, summary.Err(), context.Canceled)
	assert.Zero(t, store.inserts)
}

type infoSource struct{ sliceSource }

func (infoSource) FileName() string { return "estoque.xlsx" }
func (infoSource) Checksum() string { return "abc123" }

func TestOrchestratorRun_RecordsSourceInfo(t *testing.T) {
	src := infoSource{sliceSource{name: "drive"}}

	summary := NewOrchestrator(NewResolver(&fakeStore{})).Run(context.Background(), src)

	assert.Equal(t, "drive", summary.Source)
	assert.Equal(t, "estoque.xlsx", summary.FileName)
	assert.Equal(t, "abc123", summary.Checksum)
}
