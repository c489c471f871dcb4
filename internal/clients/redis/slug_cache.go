package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/petalframe/catalog-backend/internal/platform/logger"
)

// SlugCache keeps the canonical slug per entity close at hand so redirect
// resolution does not hit the registry table on every stale-slug lookup.
// Misses and cache outages are non-fatal: callers fall back to the DB.
type SlugCache interface {
	GetActiveSlug(ctx context.Context, kind string, entityID int64) (string, bool)
	SetActiveSlug(ctx context.Context, kind string, entityID int64, slug string)
	Invalidate(ctx context.Context, kind string, entityID int64)
	Close() error
}

type slugCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewSlugCache(log *logger.Logger) (SlugCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	ttl := 15 * time.Minute
	if raw := strings.TrimSpace(os.Getenv("SLUG_CACHE_TTL")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			ttl = parsed
		}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &slugCache{
		log: log.With("service", "RedisSlugCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func cacheKey(kind string, entityID int64) string {
	return fmt.Sprintf("catalog:active-slug:%s:%d", kind, entityID)
}

func (c *slugCache) GetActiveSlug(ctx context.Context, kind string, entityID int64) (string, bool) {
	if c == nil || c.rdb == nil {
		return "", false
	}
	val, err := c.rdb.Get(ctx, cacheKey(kind, entityID)).Result()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("slug cache read failed", "error", err)
		}
		return "", false
	}
	return val, val != ""
}

func (c *slugCache) SetActiveSlug(ctx context.Context, kind string, entityID int64, slug string) {
	if c == nil || c.rdb == nil || slug == "" {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(kind, entityID), slug, c.ttl).Err(); err != nil {
		c.log.Warn("slug cache write failed", "error", err)
	}
}

func (c *slugCache) Invalidate(ctx context.Context, kind string, entityID int64) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, cacheKey(kind, entityID)).Err(); err != nil {
		c.log.Warn("slug cache invalidation failed", "error", err)
	}
}

func (c *slugCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
