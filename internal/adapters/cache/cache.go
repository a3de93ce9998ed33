// Package cache stores fetched record sets for a short time so repeated
// refreshes do not hit the remote source's rate limit.
package cache

import (
	"context"
	"time"

	"github.com/okian/kpiboard/internal/domain/model"
)

// Cache is a TTL store of record sets keyed by query.
type Cache interface {
	// Get returns the records stored under key. ok is false on a miss.
	Get(ctx context.Context, key string) (records []model.KPIRecord, ok bool, err error)
	// Set stores records under key for ttl.
	Set(ctx context.Context, key string, records []model.KPIRecord, ttl time.Duration) error
	// Clear drops every entry.
	Clear(ctx context.Context) error
	// Backend names the implementation for logs and metrics.
	Backend() string
	Close() error
}
