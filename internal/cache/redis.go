package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRedisPrefix is prepended to every image key stored in Redis.
	DefaultRedisPrefix = "countdown:png:"

	fieldKey    = "k"
	fieldBuffer = "b"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379" or "redis://:password@host:6379/0")
	URL string

	// Prefix namespaces image keys (defaults to "countdown:png:")
	Prefix string

	// TTL is the time-to-live for cached images (defaults to 5s)
	TTL time.Duration
}

// RedisStore implements Store using Redis for distributed storage.
// This is suitable for multi-instance deployments behind a load balancer.
// Capacity is bounded by the server's maxmemory policy, not by the store.
//
// Canonical keys can be long, so each is stored under prefix+xxhash(key) as
// a hash holding the full key next to the image; a hash collision reads as a
// miss instead of serving the wrong image.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a new Redis-based store and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	slog.Info("redis cache connected", "prefix", prefix, "ttl", ttl)

	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

func (s *RedisStore) redisKey(key string) string {
	return s.prefix + strconv.FormatUint(xxhash.Sum64String(key), 16)
}

// Get retrieves an image from Redis. Expiry is enforced by Redis itself.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	vals, err := s.client.HMGet(ctx, s.redisKey(key), fieldKey, fieldBuffer).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get image from redis: %w", err)
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return nil, false, nil
	}

	storedKey, _ := vals[0].(string)
	if storedKey != key {
		return nil, false, nil
	}
	buf, _ := vals[1].(string)
	return []byte(buf), true, nil
}

// Set stores an image in Redis with the configured TTL.
func (s *RedisStore) Set(ctx context.Context, key string, buf []byte) error {
	rk := s.redisKey(key)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, rk, fieldKey, key, fieldBuffer, buf)
		pipe.PExpire(ctx, rk, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set image in redis: %w", err)
	}
	return nil
}

// statsScanLimit caps how many keys Stats walks so /health stays cheap on a
// large shared database.
const statsScanLimit = 100_000

// Stats counts the image keys under the store's prefix, stopping at
// statsScanLimit. Size is -1 when Redis cannot be reached.
func (s *RedisStore) Stats(ctx context.Context) Stats {
	size := 0
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 1000).Iterator()
	for size < statsScanLimit && iter.Next(ctx) {
		size++
	}
	if err := iter.Err(); err != nil {
		size = -1
	}
	return Stats{
		Backend: BackendRedis,
		Size:    size,
		TTL:     s.ttl,
	}
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
