// package cache stores computed compatibility results in Redis.
//
// A [Store] is best effort: callers treat every error as a miss and fall back to computing the value.
// [NoopStore] is used when no Redis URL is configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quirxsama/latte-sub000/internal/models"
)

const keyPrefix = "latte:"

// Store is a JSON key/value cache with expiry.
type Store interface {
	// GetJSON unmarshals the value at key into dest. It reports false on a miss.
	GetJSON(ctx context.Context, key string, dest any) (bool, error)

	// SetJSON marshals v and stores it at key for ttl.
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Open connects to the Redis instance at url. An empty url returns a [NoopStore].
func Open(ctx context.Context, url string) (Store, error) {
	if url == "" {
		return NoopStore{}, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStore(client), nil
}

// RedisStore implements [Store] on a go-redis client.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	b, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, fmt.Errorf("failed to decode cache key %s: %w", key, err)
	}
	return true, nil
}

func (s *RedisStore) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, b, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = keyPrefix + k
	}
	return s.client.Del(ctx, prefixed...).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// NoopStore never stores anything.
type NoopStore struct{}

func (NoopStore) GetJSON(context.Context, string, any) (bool, error) { return false, nil }

func (NoopStore) SetJSON(context.Context, string, any, time.Duration) error { return nil }

func (NoopStore) Delete(context.Context, ...string) error { return nil }

func (NoopStore) Close() error { return nil }

// CompatibilityKey identifies the comparison of a and b at their current stats versions.
//
// The key is the same for (a, b) and (b, a) and changes whenever either user re-syncs.
func CompatibilityKey(a, b *models.User) string {
	if a.ID > b.ID {
		a, b = b, a
	}
	return fmt.Sprintf("compat:%d:%d:%d:%d", a.ID, a.StatsVersion(), b.ID, b.StatsVersion())
}

// Aside reads key into dest, or on a miss calls fetch to fill dest and stores the result.
//
// Cache errors are reported through onErr and never fail the call; fetch errors are returned.
func Aside(ctx context.Context, s Store, key string, dest any, ttl time.Duration, fetch func() error, onErr func(error)) (hit bool, err error) {
	if onErr == nil {
		onErr = func(error) {}
	}

	found, err := s.GetJSON(ctx, key, dest)
	if err != nil {
		onErr(err)
	}
	if found {
		return true, nil
	}

	if err := fetch(); err != nil {
		return false, err
	}

	if err := s.SetJSON(ctx, key, dest, ttl); err != nil {
		onErr(err)
	}
	return false, nil
}
