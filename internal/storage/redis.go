package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each record in a Redis key with a JSON payload. Useful
// when the companion runs on a host that already carries a Redis instance
// and the data directory is not durable.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and verifies the connection.
func NewRedisStore(host, port string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) key(key string) string {
	return "companion:" + key
}

// Load fetches and unmarshals the record stored under key.
func (s *RedisStore) Load(key string, v any) (bool, error) {
	result := s.client.Get(context.Background(), s.key(key))
	if result.Err() == redis.Nil {
		return false, nil
	}
	if result.Err() != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, result.Err())
	}
	if err := json.Unmarshal([]byte(result.Val()), v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

// Save marshals v and replaces the record under key. Records carry no
// TTL; validity is decided by the readers.
func (s *RedisStore) Save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.client.Set(context.Background(), s.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
