package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JonMunkholm/estoque-sync/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MemoryStore(t *testing.T) {
	cfg, err := config.LoadFrom(func(k string) string {
		return map[string]string{"STORE_DRIVER": "memory"}[k]
	})
	require.NoError(t, err)

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	assert.False(t, app.Service.RemoteEnabled())
	products, err := app.Service.ListProducts(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestNew_BadDatabaseURL(t *testing.T) {
	cfg, err := config.LoadFrom(func(k string) string {
		return map[string]string{"DATABASE_URL": "postgres://%zz"}[k]
	})
	require.NoError(t, err)

	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	opts := Options(config.SyncConfig{PageSize: 7, MaxConcurrent: 2, MaxWaitTime: time.Second, Timeout: time.Minute, HistorySize: 3})
	assert.Equal(t, 7, opts.PageSize)
	assert.Equal(t, 2, opts.MaxConcurrent)
	assert.Equal(t, time.Second, opts.MaxWait)
	assert.Equal(t, time.Minute, opts.RunTimeout)
	assert.Equal(t, 3, opts.HistorySize)
}

func TestClose_ReverseOrderAndJoinedErrors(t *testing.T) {
	var order []int
	boom := errors.New("boom")
	app := &App{closers: []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return boom },
	}}

	err := app.Close()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{2, 1}, order)
	assert.NoError(t, app.Close())
}

func TestDatabaseName(t *testing.T) {
	assert.Equal(t, "estoque", databaseName("postgres://u:p@localhost:5432/estoque?sslmode=disable"))
}
