package positions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/champtc/cyio-graph/internal/domain"
	"github.com/champtc/cyio-graph/internal/graphdata"
)

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379/0").
	URL string
	// KeyPrefix namespaces the keys; defaults to "cyio:positions:".
	KeyPrefix string
	// TTL expires saved layouts; zero keeps them forever.
	TTL time.Duration
	// ConnectTimeout bounds the initial ping.
	ConnectTimeout time.Duration
}

const defaultKeyPrefix = "cyio:positions:"

// RedisStore keeps the encoded positions of each container under its own key.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = defaultKeyPrefix
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: opts.KeyPrefix, ttl: opts.TTL}, nil
}

func (s *RedisStore) key(containerID string) string {
	return s.prefix + containerID
}

// Load returns the saved positions; a missing key yields an empty map.
func (s *RedisStore) Load(ctx context.Context, containerID string) (domain.Positions, error) {
	encoded, err := s.client.Get(ctx, s.key(containerID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Positions{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load positions %s: %w", containerID, err)
	}
	return graphdata.DecodePositions(encoded), nil
}

// Save replaces the saved positions of a container.
func (s *RedisStore) Save(ctx context.Context, containerID string, positions domain.Positions) error {
	if err := s.client.Set(ctx, s.key(containerID), graphdata.EncodePositions(positions), s.ttl).Err(); err != nil {
		return fmt.Errorf("save positions %s: %w", containerID, err)
	}
	return nil
}

// Delete removes the saved positions of a container.
func (s *RedisStore) Delete(ctx context.Context, containerID string) error {
	if err := s.client.Del(ctx, s.key(containerID)).Err(); err != nil {
		return fmt.Errorf("delete positions %s: %w", containerID, err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks that Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
