package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/pkg/logger"
)

// BackendRedis names the Redis cache.
const BackendRedis = "redis"

const (
	defaultRedisPrefix  = "kpiboard:records:"
	defaultPingTimeout  = 2 * time.Second
	defaultRedisTimeout = 250 * time.Millisecond
	scanBatch           = 100
)

// Redis is a Cache backed by a Redis server. Records are stored as JSON.
type Redis struct {
	client  *redis.Client
	logger  logger.Logger
	prefix  string
	timeout time.Duration
}

// RedisConfig holds the connection settings for NewRedis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Timeout  time.Duration
	Logger   logger.Logger
}

// NewRedis connects to Redis and verifies the connection with a ping.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, cfg.Addr, err)
	}

	r := &Redis{
		client:  client,
		logger:  cfg.Logger,
		prefix:  cfg.Prefix,
		timeout: cfg.Timeout,
	}
	if r.logger == nil {
		r.logger = logger.Get()
	}
	if r.prefix == "" {
		r.prefix = defaultRedisPrefix
	}
	if r.timeout <= 0 {
		r.timeout = defaultRedisTimeout
	}
	return r, nil
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) ([]model.KPIRecord, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		r.logRedisError(ctx, "get", err)
		return nil, false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	var records []model.KPIRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return records, true, nil
}

// Set implements Cache. A non-positive ttl stores nothing.
func (r *Redis) Set(ctx context.Context, key string, records []model.KPIRecord, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.client.Set(ctx, r.prefix+key, raw, ttl).Err(); err != nil {
		r.logRedisError(ctx, "set", err)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Clear deletes every key under the cache prefix.
func (r *Redis) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*r.timeout)
	defer cancel()

	iter := r.client.Scan(ctx, 0, r.prefix+"*", scanBatch).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.logRedisError(ctx, "scan", err)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logRedisError(ctx, "del", err)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Backend implements Cache.
func (*Redis) Backend() string { return BackendRedis }

// Close implements Cache.
func (r *Redis) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *Redis) logRedisError(ctx context.Context, op string, err error) {
	r.logger.Error(ctx, "redis cache error", logger.String("op", op), logger.Error(err))
}
