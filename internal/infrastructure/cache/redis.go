package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/clipstream/internal/domain/model"
	"github.com/hszk-dev/clipstream/internal/infrastructure/metrics"
)

const (
	// artifactKeyPrefix is the prefix for artifact cache keys in Redis.
	artifactKeyPrefix = "artifact:"

	// scanBatchSize is the COUNT hint for SCAN during namespace invalidation.
	scanBatchSize = 100
)

// RedisArtifactCache implements ArtifactCache using Redis as the backing
// store. Only raw content bytes are cached; the content type is derived from
// the filename on read, so no envelope format is needed.
type RedisArtifactCache struct {
	client *redis.Client
}

// Compile-time verification that RedisArtifactCache implements ArtifactCache.
var _ ArtifactCache = (*RedisArtifactCache)(nil)

// NewRedisArtifactCache creates a new Redis-backed artifact cache.
func NewRedisArtifactCache(client *redis.Client) *RedisArtifactCache {
	return &RedisArtifactCache{client: client}
}

// Get retrieves an artifact from Redis. Returns nil, nil on cache miss.
func (c *RedisArtifactCache) Get(ctx context.Context, videoID, filename string) (*model.StoredFile, error) {
	content, err := c.client.Get(ctx, c.buildKey(videoID, filename)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss).Inc()
			return nil, nil // Cache miss
		}
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError).Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit).Inc()
	return &model.StoredFile{
		Filename:    filename,
		Content:     content,
		ContentType: model.ContentTypeForFilename(filename),
	}, nil
}

// Set stores an artifact in Redis with the specified TTL.
func (c *RedisArtifactCache) Set(ctx context.Context, videoID string, file *model.StoredFile, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.buildKey(videoID, file.Filename), file.Content, ttl).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError).Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess).Inc()
	return nil
}

// DeleteVideo removes all cached artifacts for a video via SCAN, so a
// re-processed or deleted video never serves stale bytes from cache.
func (c *RedisArtifactCache) DeleteVideo(ctx context.Context, videoID string) error {
	pattern := artifactKeyPrefix + videoID + ":*"

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusError).Inc()
			return fmt.Errorf("redis scan: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusError).Inc()
				return fmt.Errorf("redis del: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusSuccess).Inc()
	return nil
}

// buildKey constructs the Redis key for an artifact.
func (c *RedisArtifactCache) buildKey(videoID, filename string) string {
	return artifactKeyPrefix + videoID + ":" + filename
}
