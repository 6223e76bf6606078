package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marketbridge/backend/internal/domain/inventory"
	"github.com/marketbridge/backend/internal/infrastructure/config"
)

// snapshotTTL bounds how long a remote quantity is trusted. A stale snapshot
// reads as "unknown", which the drift check reports instead of guessing.
const snapshotTTL = 24 * time.Hour

// RedisStockSnapshot implements RemoteStockSnapshot using Redis. It caches
// the marketplace's last-known quantity per channel and SKU, refreshed from
// offer-list pulls.
type RedisStockSnapshot struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStockSnapshot creates a snapshot store from connection settings
func NewRedisStockSnapshot(cfg *config.RedisConfig) (*RedisStockSnapshot, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStockSnapshot{
		client:    client,
		keyPrefix: "inventory:remote:",
	}, nil
}

// NewRedisStockSnapshotWithClient creates a store with an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisStockSnapshotWithClient(client *redis.Client, keyPrefix string) *RedisStockSnapshot {
	if keyPrefix == "" {
		keyPrefix = "inventory:remote:"
	}
	return &RedisStockSnapshot{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *RedisStockSnapshot) key(channelCode, sku string) string {
	return s.keyPrefix + channelCode + ":" + sku
}

// Get returns the cached remote quantity for a SKU. known is false when the
// marketplace quantity was never cached or has expired.
func (s *RedisStockSnapshot) Get(ctx context.Context, channelCode, sku string) (int, bool, error) {
	val, err := s.client.Get(ctx, s.key(channelCode, sku)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read stock snapshot: %w", err)
	}
	qty, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt stock snapshot for %s/%s: %w", channelCode, sku, err)
	}
	return qty, true, nil
}

// Set caches the remote quantity for a single SKU
func (s *RedisStockSnapshot) Set(ctx context.Context, channelCode, sku string, qty int) error {
	if err := s.client.Set(ctx, s.key(channelCode, sku), strconv.Itoa(qty), snapshotTTL).Err(); err != nil {
		return fmt.Errorf("failed to write stock snapshot: %w", err)
	}
	return nil
}

// SetBatch caches remote quantities for many SKUs in one round trip
func (s *RedisStockSnapshot) SetBatch(ctx context.Context, channelCode string, quantities map[string]int) error {
	if len(quantities) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for sku, qty := range quantities {
		pipe.Set(ctx, s.key(channelCode, sku), strconv.Itoa(qty), snapshotTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write stock snapshot batch: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisStockSnapshot) Close() error {
	return s.client.Close()
}

// Ensure RedisStockSnapshot implements the domain port
var _ inventory.RemoteStockSnapshot = (*RedisStockSnapshot)(nil)
