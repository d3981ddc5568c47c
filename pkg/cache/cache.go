// Package cache is a thin JSON cache over Redis. Every method tolerates
// a nil client so the API keeps serving (uncached) when Redis is down.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache TTLs per data class.
const (
	TTLDocument = 10 * time.Minute // document metadata, changes rarely
	TTLAnalysis = 30 * time.Minute // completed analyses are immutable
	TTLVersions = 5 * time.Minute  // version lists grow occasionally
	TTLTiming   = 1 * time.Hour    // dropped early when a sibling version arrives
	TTLDefault  = 5 * time.Minute
)

// Cache key prefixes.
const (
	PrefixDocument = "doc:"
	PrefixAnalysis = "analysis:"
	PrefixVersions = "versions:"
	PrefixTiming   = "timing:"
)

// Service is the Redis cache interface.
type Service interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	GetAnalysis(ctx context.Context, versionID uint64, dest interface{}) error
	SetAnalysis(ctx context.Context, versionID uint64, data interface{}) error
	InvalidateAnalysis(ctx context.Context, versionID uint64) error

	GetTimingReport(ctx context.Context, documentID, versionID uint64, dest interface{}) error
	SetTimingReport(ctx context.Context, documentID, versionID uint64, data interface{}) error

	// InvalidateDocument drops the document's cache entries, including
	// every timing report under it: a new version changes the frequency
	// signals of its siblings.
	InvalidateDocument(ctx context.Context, documentID uint64) error

	IsAvailable() bool
	Ping(ctx context.Context) error
}

type redisCache struct {
	client *redis.Client
}

// NewService creates a cache service over an optional Redis client.
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.client.Ping(ctx).Err()
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return redis.Nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *redisCache) GetAnalysis(ctx context.Context, versionID uint64, dest interface{}) error {
	return c.Get(ctx, analysisKey(versionID), dest)
}

func (c *redisCache) SetAnalysis(ctx context.Context, versionID uint64, data interface{}) error {
	return c.Set(ctx, analysisKey(versionID), data, TTLAnalysis)
}

func (c *redisCache) InvalidateAnalysis(ctx context.Context, versionID uint64) error {
	return c.Delete(ctx, analysisKey(versionID))
}

func (c *redisCache) GetTimingReport(ctx context.Context, documentID, versionID uint64, dest interface{}) error {
	return c.Get(ctx, timingKey(documentID, versionID), dest)
}

func (c *redisCache) SetTimingReport(ctx context.Context, documentID, versionID uint64, data interface{}) error {
	return c.Set(ctx, timingKey(documentID, versionID), data, TTLTiming)
}

func (c *redisCache) InvalidateDocument(ctx context.Context, documentID uint64) error {
	if err := c.Delete(ctx,
		fmt.Sprintf("%s%d", PrefixDocument, documentID),
		fmt.Sprintf("%s%d", PrefixVersions, documentID),
	); err != nil {
		return err
	}
	return c.deletePattern(ctx, fmt.Sprintf("%s%d:*", PrefixTiming, documentID))
}

func (c *redisCache) deletePattern(ctx context.Context, pattern string) error {
	if c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.Delete(ctx, keys...)
}

func analysisKey(versionID uint64) string {
	return fmt.Sprintf("%s%d", PrefixAnalysis, versionID)
}

func timingKey(documentID, versionID uint64) string {
	return fmt.Sprintf("%s%d:%d", PrefixTiming, documentID, versionID)
}
