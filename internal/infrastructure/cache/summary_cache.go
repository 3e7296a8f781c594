// Package cache provides the Redis-backed payment summary cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/renovate/backend/internal/domain/billing"
	"go.uber.org/zap"
)

// RedisSummaryCache caches payment summaries per project with a TTL.
// All operations are best effort: Redis being down degrades to recomputing
// summaries, never to request failures.
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisSummaryCache creates a new RedisSummaryCache
func NewRedisSummaryCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisSummaryCache {
	return &RedisSummaryCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached summary for a project, or false on miss
func (c *RedisSummaryCache) Get(ctx context.Context, projectID uuid.UUID) (*billing.PaymentSummary, bool) {
	raw, err := c.client.Get(ctx, cacheKey(projectID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("summary cache read failed",
				zap.String("project_id", projectID.String()), zap.Error(err))
		}
		return nil, false
	}

	var summary billing.PaymentSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		c.logger.Warn("summary cache entry corrupt, dropping",
			zap.String("project_id", projectID.String()), zap.Error(err))
		c.client.Del(ctx, cacheKey(projectID))
		return nil, false
	}
	return &summary, true
}

// Set stores the summary for a project
func (c *RedisSummaryCache) Set(ctx context.Context, projectID uuid.UUID, summary billing.PaymentSummary) {
	raw, err := json.Marshal(summary)
	if err != nil {
		c.logger.Warn("failed to marshal summary for cache", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, cacheKey(projectID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("summary cache write failed",
			zap.String("project_id", projectID.String()), zap.Error(err))
	}
}

// Invalidate drops the cached summary for a project
func (c *RedisSummaryCache) Invalidate(ctx context.Context, projectID uuid.UUID) {
	if err := c.client.Del(ctx, cacheKey(projectID)).Err(); err != nil {
		c.logger.Warn("summary cache invalidation failed",
			zap.String("project_id", projectID.String()), zap.Error(err))
	}
}

func cacheKey(projectID uuid.UUID) string {
	return fmt.Sprintf("billing:summary:%s", projectID)
}
