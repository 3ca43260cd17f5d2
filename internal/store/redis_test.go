package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisWithClient(client)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newRedisStore(t)

	loaded, err := s.LoadBoard(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded, "missing key loads nil board")

	board := sampleBoard()
	require.NoError(t, s.SaveBoard(ctx, board))

	loaded, err = s.LoadBoard(ctx)
	require.NoError(t, err)
	assert.Equal(t, board, loaded)
}

func TestRedisStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newRedisStore(t)

	require.NoError(t, s.SaveBoard(ctx, sampleBoard()))
	require.NoError(t, s.SaveBoard(ctx, nil))

	loaded, err := s.LoadBoard(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestNewRedis_BadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "not-a-url")
	assert.Error(t, err)
}
