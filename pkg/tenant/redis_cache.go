package tenant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisMetaPrefix    = "tenant:meta:"
	redisFeaturePrefix = "tenant:features:"
)

// redisCache is a Redis-backed metadata cache for multi-instance deployments
// where all application nodes must observe registry writes immediately.
type redisCache struct {
	client *redis.Client
}

// NewRedisCache creates a metadata cache backed by the given Redis client.
// The client lifecycle belongs to the caller; Close is a no-op here.
func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, key string) (*Record, bool) {
	data, err := c.client.Get(ctx, redisMetaPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		// Unreadable entries are dropped so the registry repopulates them.
		c.client.Del(ctx, redisMetaPrefix+key)
		return nil, false
	}
	return &rec, true
}

func (c *redisCache) Set(ctx context.Context, key string, rec *Record, ttl time.Duration) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	c.client.Set(ctx, redisMetaPrefix+key, data, ttl)
}

func (c *redisCache) Delete(ctx context.Context, key string) {
	c.client.Del(ctx, redisMetaPrefix+key)
}

func (c *redisCache) Close() error { return nil }

// redisFeatureCache is the Redis-backed counterpart of the feature cache.
type redisFeatureCache struct {
	client *redis.Client
}

// NewRedisFeatureCache creates a feature cache backed by the given Redis
// client.
func NewRedisFeatureCache(client *redis.Client) FeatureCache {
	return &redisFeatureCache{client: client}
}

func (c *redisFeatureCache) Get(ctx context.Context, tenantID uuid.UUID) (json.RawMessage, bool) {
	data, err := c.client.Get(ctx, redisFeaturePrefix+tenantID.String()).Bytes()
	if err != nil {
		return nil, false
	}
	return json.RawMessage(data), true
}

func (c *redisFeatureCache) Set(ctx context.Context, tenantID uuid.UUID, features json.RawMessage, ttl time.Duration) {
	c.client.Set(ctx, redisFeaturePrefix+tenantID.String(), []byte(features), ttl)
}

func (c *redisFeatureCache) Delete(ctx context.Context, tenantID uuid.UUID) {
	c.client.Del(ctx, redisFeaturePrefix+tenantID.String())
}

func (c *redisFeatureCache) Close() error { return nil }
