package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadops-cli/internal/config"
	"github.com/sells-group/leadops-cli/internal/store"
)

func withTestConfig(t *testing.T, c config.Config) {
	t.Helper()
	prev := cfg
	cfg = &c
	t.Cleanup(func() { cfg = prev })
}

func TestInitStore_Memory(t *testing.T) {
	withTestConfig(t, config.Config{Store: config.StoreConfig{Driver: "memory"}})

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	_, ok := st.(*store.MemoryStore)
	assert.True(t, ok)
}

func TestInitStore_SQLite(t *testing.T) {
	withTestConfig(t, config.Config{Store: config.StoreConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}})

	st, err := initStore(context.Background())
	require.NoError(t, err)
	assert.NoError(t, st.Close())
}

func TestInitStore_Unsupported(t *testing.T) {
	withTestConfig(t, config.Config{Store: config.StoreConfig{Driver: "cassandra"}})

	_, err := initStore(context.Background())
	assert.ErrorContains(t, err, "unsupported store driver")
}

func TestInitBoard_MemoryNoForge(t *testing.T) {
	withTestConfig(t, config.Config{Store: config.StoreConfig{Driver: "memory"}})

	env, err := initBoard(context.Background())
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Board)
	assert.Nil(t, env.Dispatcher)
	assert.Equal(t, 0, env.Board.Len())
}
