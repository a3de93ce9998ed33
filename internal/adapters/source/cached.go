package source

import (
	"context"
	"time"

	"github.com/okian/kpiboard/internal/adapters/cache"
	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/pkg/logger"
	"github.com/okian/kpiboard/pkg/metrics"
)

// Cached is a read-through cache in front of another Source. Cache errors
// are logged and the inner source is used instead.
type Cached struct {
	inner  Source
	cache  cache.Cache
	ttl    time.Duration
	logger logger.Logger
}

// NewCached wraps src with c. Entries live for ttl.
func NewCached(src Source, c cache.Cache, ttl time.Duration, opts ...Option) *Cached {
	o := newOptions(opts)
	return &Cached{
		inner:  src,
		cache:  c,
		ttl:    ttl,
		logger: o.logger.With(logger.String("backend", src.Name()), logger.String("cache", c.Backend())),
	}
}

// Name reports the wrapped source's name.
func (c *Cached) Name() string { return c.inner.Name() }

// Fetch implements Source.
func (c *Cached) Fetch(ctx context.Context, q Query) ([]model.KPIRecord, error) {
	key := c.inner.Name() + ":" + q.Key()

	records, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn(ctx, "cache read failed", logger.Error(err))
	case ok:
		metrics.RecordCacheHit(c.cache.Backend())
		return records, nil
	default:
		metrics.RecordCacheMiss(c.cache.Backend())
	}

	records, err = c.inner.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, records, c.ttl); err != nil {
		c.logger.Warn(ctx, "cache write failed", logger.Error(err))
	}
	return records, nil
}

// Invalidate drops every cached entry so the next Fetch reaches the source.
func (c *Cached) Invalidate(ctx context.Context) error {
	return c.cache.Clear(ctx)
}
