package credentials

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisKVClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore guarda el token en una sola clave de redis, sin expiracion.
type RedisStore struct {
	client  redisKVClient
	key     string
	timeout time.Duration
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if client == nil {
		return nil
	}
	return newRedisStore(client, key)
}

func newRedisStore(client redisKVClient, key string) *RedisStore {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "chat:client:token"
	}
	return &RedisStore{client: client, key: key, timeout: 500 * time.Millisecond}
}

func (s *RedisStore) Load(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	val, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (s *RedisStore) Save(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Set(ctx, s.key, token, 0).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Del(ctx, s.key).Err()
}
