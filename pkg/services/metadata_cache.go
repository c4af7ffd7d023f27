package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hindsightlog/hindsight/pkg/models"
)

// metadataCacheKey is the single key holding the serialized filter metadata.
const metadataCacheKey = "hindsight:filter_metadata"

// MetadataCache is a short-TTL Redis cache for filter metadata. The metadata
// is derived over the whole store, so one key suffices and every write path
// invalidates it. A nil Redis client disables the cache entirely; cache
// failures degrade silently to the database.
type MetadataCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewMetadataCache creates a cache over the given client. client may be nil
// (cache disabled).
func NewMetadataCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *MetadataCache {
	return &MetadataCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached metadata, or nil and false on miss, disabled cache,
// or any Redis failure.
func (c *MetadataCache) Get(ctx context.Context) (*models.FilterMetadata, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, metadataCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Filter metadata cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var metadata models.FilterMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		c.logger.Warn("Filter metadata cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return &metadata, true
}

// Set stores the metadata with the configured TTL. Failures are logged and
// swallowed.
func (c *MetadataCache) Set(ctx context.Context, metadata *models.FilterMetadata) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(metadata)
	if err != nil {
		c.logger.Warn("Failed to serialize filter metadata", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, metadataCacheKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Filter metadata cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached entry. Called on every decision mutation so
// dropdowns never show values the store no longer contains past the TTL.
func (c *MetadataCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, metadataCacheKey).Err(); err != nil {
		c.logger.Warn("Filter metadata cache invalidation failed", zap.Error(err))
	}
}
