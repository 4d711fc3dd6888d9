package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"posengine/internal/model"

	"github.com/redis/go-redis/v9"
)

const bundlesKey = "bundles:enabled"

type RedisBundleCache struct {
	client *redis.Client
}

func NewRedisBundleCache(client *redis.Client) *RedisBundleCache {
	return &RedisBundleCache{client: client}
}

func (c *RedisBundleCache) Get(ctx context.Context) ([]model.Bundle, bool, error) {
	val, err := c.client.Get(ctx, bundlesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var bundles []model.Bundle
	if err := json.Unmarshal(val, &bundles); err != nil {
		return nil, false, err
	}
	return bundles, true, nil
}

func (c *RedisBundleCache) Set(ctx context.Context, bundles []model.Bundle, ttl time.Duration) error {
	if bundles == nil {
		bundles = []model.Bundle{}
	}
	payload, err := json.Marshal(bundles)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, bundlesKey, payload, ttl).Err()
}

func (c *RedisBundleCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, bundlesKey).Err()
}
