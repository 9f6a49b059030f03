package market

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	gocache "github.com/patrickmn/go-cache"

	"profitmaker/internal/model"
)

// quoteCache is the TTL cache behind the market client. Entries expire after
// the configured TTL; a failed backend read is treated as a miss so the
// client falls through to a fresh fetch.
type quoteCache interface {
	get(ctx context.Context, key string) ([]model.PriceQuote, bool)
	set(ctx context.Context, key string, quotes []model.PriceQuote)
	flush(ctx context.Context)
}

// memoryCache is the default single-process backend.
type memoryCache struct {
	c *gocache.Cache
}

func newMemoryCache(ttl time.Duration) *memoryCache {
	return &memoryCache{c: gocache.New(ttl, 2*ttl)}
}

func (m *memoryCache) get(_ context.Context, key string) ([]model.PriceQuote, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false
	}
	quotes, ok := v.([]model.PriceQuote)
	return quotes, ok
}

func (m *memoryCache) set(_ context.Context, key string, quotes []model.PriceQuote) {
	m.c.Set(key, quotes, gocache.DefaultExpiration)
}

func (m *memoryCache) flush(_ context.Context) {
	m.c.Flush()
}

// redisCache shares quotes between several dashboard instances.
type redisCache struct {
	logger *slog.Logger
	client *redis.Client
	ttl    time.Duration
}

func newRedisCache(logger *slog.Logger, addr string, ttl time.Duration) *redisCache {
	return &redisCache{
		logger: logger,
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

func (r *redisCache) get(ctx context.Context, key string) ([]model.PriceQuote, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("redis cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var quotes []model.PriceQuote
	if err := json.Unmarshal(data, &quotes); err != nil {
		r.logger.Warn("redis cache entry malformed, ignoring", "key", key, "error", err)
		return nil, false
	}
	return quotes, true
}

func (r *redisCache) set(ctx context.Context, key string, quotes []model.PriceQuote) {
	data, err := json.Marshal(quotes)
	if err != nil {
		r.logger.Warn("failed to marshal quotes for redis", "key", key, "error", err)
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("redis cache write failed", "key", key, "error", err)
	}
}

func (r *redisCache) flush(ctx context.Context) {
	if err := r.client.FlushDB(ctx).Err(); err != nil {
		r.logger.Warn("redis cache flush failed", "error", err)
	}
}
