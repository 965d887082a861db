package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"reservation-service/internal/models"
)

// StatusCache caches stock status snapshots in Redis. Cached reads are
// eventually consistent, which matches the display-only contract of the
// status operation.
type StatusCache struct {
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
}

// NewStatusCache creates a Redis-backed status cache
func NewStatusCache(addrs []string, password string, ttl time.Duration, keyPrefix string) *StatusCache {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:      addrs,
		Password:   password,
		MaxRetries: 3,
	})

	return &StatusCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
	}
}

// GetStatus retrieves a cached snapshot, or (nil, nil) on a cache miss
func (c *StatusCache) GetStatus(ctx context.Context, productID string) (*models.StockStatus, error) {
	key := c.statusKey(productID)

	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		log.Error().Err(err).Str("product_id", productID).Msg("Failed to get status from cache")
		return nil, fmt.Errorf("failed to get status from cache: %w", err)
	}

	var status models.StockStatus
	if err := json.Unmarshal([]byte(val), &status); err != nil {
		log.Error().Err(err).Str("product_id", productID).Msg("Failed to unmarshal cached status")
		return nil, fmt.Errorf("failed to unmarshal cached status: %w", err)
	}

	log.Debug().Str("product_id", productID).Msg("Cache hit for stock status")
	return &status, nil
}

// SetStatus stores a snapshot with the configured TTL
func (c *StatusCache) SetStatus(ctx context.Context, status *models.StockStatus) error {
	key := c.statusKey(status.ProductID)

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Error().Err(err).Str("product_id", status.ProductID).Msg("Failed to set status in cache")
		return fmt.Errorf("failed to set status in cache: %w", err)
	}

	return nil
}

// DeleteStatus drops a snapshot after a ledger mutation
func (c *StatusCache) DeleteStatus(ctx context.Context, productID string) error {
	key := c.statusKey(productID)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		log.Error().Err(err).Str("product_id", productID).Msg("Failed to delete status from cache")
		return fmt.Errorf("failed to delete status from cache: %w", err)
	}

	return nil
}

// Ping checks connectivity
func (c *StatusCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (c *StatusCache) Close() error {
	return c.client.Close()
}

func (c *StatusCache) statusKey(productID string) string {
	return c.keyPrefix + "status:" + productID
}
