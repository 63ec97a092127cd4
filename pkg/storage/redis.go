package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis, sharing the latest prediction per
// symbol across server instances with TTL-based expiration.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis at addr and verifies the connection.
// ttl 0 defaults to 30 minutes.
func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	if db < 0 {
		return nil, errors.New("redis database number must be >= 0")
	}
	if ttl == 0 {
		ttl = 30 * time.Minute
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func snapshotKey(symbol string) string {
	return "candlecast:prediction:" + symbol
}

// Put stores a snapshot under the symbol's key with the configured TTL.
func (r *RedisStore) Put(ctx context.Context, s Snapshot) error {
	if s.Symbol == "" {
		return errors.New("snapshot symbol cannot be empty")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := r.client.Set(ctx, snapshotKey(s.Symbol), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("store snapshot in redis: %w", err)
	}
	return nil
}

// GetLatest retrieves the latest snapshot for a symbol. A missing key is
// (zero, false, nil), not an error.
func (r *RedisStore) GetLatest(ctx context.Context, symbol string) (Snapshot, bool, error) {
	if symbol == "" {
		return Snapshot{}, false, errors.New("symbol required")
	}

	data, err := r.client.Get(ctx, snapshotKey(symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("get snapshot from redis: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snapshot, true, nil
}

// Ping verifies the Redis connection is alive.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying Redis client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
