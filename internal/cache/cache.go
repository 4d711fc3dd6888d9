// Package cache keeps the enabled bundle set close to the checkout path.
package cache

import (
	"context"
	"time"

	"posengine/internal/model"
)

// BundleCache stores the enabled bundles. A miss returns ok=false with a nil
// error; callers fall back to storage.
type BundleCache interface {
	Get(ctx context.Context) ([]model.Bundle, bool, error)
	Set(ctx context.Context, bundles []model.Bundle, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type NoopBundleCache struct{}

func (NoopBundleCache) Get(context.Context) ([]model.Bundle, bool, error) { return nil, false, nil }

func (NoopBundleCache) Set(context.Context, []model.Bundle, time.Duration) error { return nil }

func (NoopBundleCache) Invalidate(context.Context) error { return nil }
