package main

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/kpiboard/internal/adapters/cache"
	"github.com/okian/kpiboard/internal/adapters/repository"
	"github.com/okian/kpiboard/internal/adapters/source"
	app "github.com/okian/kpiboard/internal/app"
	"github.com/okian/kpiboard/internal/config"
	"github.com/okian/kpiboard/pkg/logger"
)

// newSource builds the configured record source, wrapped in the record
// cache when one is enabled. The returned cleanup closes the cache.
func newSource(ctx context.Context, cfg *config.Config, loc *time.Location, log logger.Logger) (source.Source, func(), error) {
	var src source.Source
	switch cfg.Source {
	case config.SourceAirtable:
		src = source.NewAirtable(cfg.AirtableAPIKey,
			source.WithLogger(log),
			source.WithLocation(loc),
			source.WithTimeout(cfg.FetchTimeout()),
			source.WithBaseURL(cfg.AirtableBaseURL),
			source.WithBase(cfg.AirtableBaseID, cfg.AirtableTableID),
			source.WithPageSize(cfg.AirtablePageSize),
			source.WithDateField(cfg.AirtableDateField),
		)
	case config.SourceXLSX:
		src = source.NewXLSX(cfg.XLSXPath,
			source.WithSheet(cfg.XLSXSheet),
			source.WithLocation(loc),
			source.WithLogger(log),
		)
	default:
		// nothing to spare by caching in-process data
		return source.NewFixture(), func() {}, nil
	}

	c, err := newCache(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if c == nil {
		return src, func() {}, nil
	}
	cleanup := func() {
		if err := c.Close(); err != nil {
			log.Warn(context.Background(), "closing record cache", logger.Error(err))
		}
	}
	return source.NewCached(src, c, cfg.CacheTTL(), source.WithLogger(log)), cleanup, nil
}

// newCache returns nil when caching is disabled. An unreachable Redis
// degrades to the in-process cache.
func newCache(ctx context.Context, cfg *config.Config, log logger.Logger) (cache.Cache, error) {
	switch cfg.CacheBackend {
	case config.CacheMemory:
		return cache.NewMemory(), nil
	case config.CacheRedis:
		r, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Logger:   log,
		})
		if err != nil {
			log.Warn(ctx, "redis unavailable, using in-memory record cache",
				logger.String("redis_addr", cfg.RedisAddr),
				logger.Error(err),
			)
			return cache.NewMemory(), nil
		}
		return r, nil
	default:
		return nil, nil
	}
}

// newStore opens the SQLite settings file, or an in-memory store when no
// path is configured.
func newStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.SettingsStore, error) {
	if cfg.SettingsDB == "" {
		return repository.NewMemoryStore(), nil
	}
	store, err := repository.NewSQLiteStore(ctx, cfg.SettingsDB, repository.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}
	return store, nil
}

// newService wires a Service from cfg. The caller starts it and runs the
// cleanup after Stop.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger, extra ...app.Option) (*app.Service, func(), error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	src, closeSource, err := newSource(ctx, cfg, loc, log)
	if err != nil {
		return nil, nil, err
	}
	store, err := newStore(ctx, cfg, log)
	if err != nil {
		closeSource()
		return nil, nil, err
	}

	opts := []app.Option{
		app.WithSource(src),
		app.WithSettingsStore(store),
		app.WithRefreshInterval(cfg.RefreshInterval()),
		app.WithQueueSize(cfg.RefreshQueueSize),
		app.WithJobTimeout(2 * cfg.FetchTimeout()),
		app.WithTopN(cfg.TopPerRole),
		app.WithLocation(loc),
		app.WithLogger(log.Named("service")),
	}
	return app.New(append(opts, extra...)...), closeSource, nil
}
