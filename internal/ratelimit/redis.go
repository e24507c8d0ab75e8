package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript increments the key and sets its expiry on the first hit of a
// window, atomically. Returns {count, pttl}.
var hitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisStore shares buckets between instances through Redis.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore connects using a redis:// URL and pings the server.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("ongeldige redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis niet bereikbaar: %w", err)
	}
	return NewRedisStoreFromClient(client), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, prefix: "backoffice:ratelimit:"}
}

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration, now time.Time) (Bucket, error) {
	windowMs := window.Milliseconds()
	res, err := hitScript.Run(ctx, s.client, []string{s.prefix + key}, windowMs).Int64Slice()
	if err != nil {
		return Bucket{}, fmt.Errorf("redis hit %s: %w", key, err)
	}
	if len(res) != 2 {
		return Bucket{}, fmt.Errorf("redis hit %s: unexpected reply %v", key, res)
	}

	ttl := time.Duration(res[1]) * time.Millisecond
	resetAt := now.Add(ttl)
	return Bucket{Count: int(res[0]), WindowStart: resetAt.Add(-window)}, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
