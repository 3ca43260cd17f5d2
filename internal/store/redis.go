package store

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadops-cli/internal/model"
)

// redisBoardKey namespaces the board snapshot inside a shared Redis.
const redisBoardKey = "leadops:" + BoardKey

// RedisStore implements Store on a single Redis key.
type RedisStore struct {
	client *redis.Client
}

// NewRedis connects to Redis using a standard URL
// (redis://[user:pass@]host:port/db).
func NewRedis(ctx context.Context, redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, eris.Wrap(err, "redis: parse url")
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, eris.Wrap(err, "redis: ping")
	}
	return &RedisStore{client: client}, nil
}

// NewRedisWithClient wraps an existing client. Tests inject a client
// pointed at miniredis here.
func NewRedisWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Migrate(_ context.Context) error { return nil }

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) LoadBoard(ctx context.Context) ([]model.Lead, error) {
	value, err := s.client.Get(ctx, redisBoardKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "redis: load board")
	}

	var leads []model.Lead
	if err := json.Unmarshal(value, &leads); err != nil {
		return nil, eris.Wrap(err, "redis: unmarshal board")
	}
	return leads, nil
}

func (s *RedisStore) SaveBoard(ctx context.Context, leads []model.Lead) error {
	value, err := json.Marshal(leads)
	if err != nil {
		return eris.Wrap(err, "redis: marshal board")
	}
	if err := s.client.Set(ctx, redisBoardKey, value, 0).Err(); err != nil {
		return eris.Wrap(err, "redis: save board")
	}
	return nil
}
