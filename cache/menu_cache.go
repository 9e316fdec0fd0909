package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LeeRude11/delivery/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	MenuListCachePrefix = "menu:v:"
	CacheVersionKey     = "menu:version"
	DefaultCacheTTL     = 10 * time.Minute
)

// Well-known list names.
const (
	ListAll      = "all"
	ListSpecials = "specials"
)

// MenuCache caches the customer-facing menu lists.
type MenuCache interface {
	GetList(ctx context.Context, name string) ([]models.MenuItem, bool)
	SetListAsync(name string, items []models.MenuItem)
	Invalidate(ctx context.Context) error
}

// RedisMenuCache stores lists under a version number. Invalidate bumps the
// version, so stale entries are never read and simply expire.
type RedisMenuCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisMenuCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisMenuCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisMenuCache{redis: client, ttl: ttl, logger: logger}
}

func (cm *RedisMenuCache) GetList(ctx context.Context, name string) ([]models.MenuItem, bool) {
	version, err := cm.getCacheVersion(ctx)
	if err != nil {
		return nil, false
	}

	cached, err := cm.redis.Get(ctx, listKey(version, name)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cm.logger.Warn("Menu cache read failed", zap.String("list", name), zap.Error(err))
		}
		return nil, false
	}

	var items []models.MenuItem
	if err := json.Unmarshal(cached, &items); err != nil {
		cm.logger.Warn("Failed to unmarshal cached menu list", zap.Error(err))
		return nil, false
	}
	return items, true
}

// SetListAsync caches a list in the background; failures are only logged.
func (cm *RedisMenuCache) SetListAsync(name string, items []models.MenuItem) {
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		version, err := cm.getCacheVersion(bgCtx)
		if err != nil {
			return
		}
		data, err := json.Marshal(items)
		if err != nil {
			cm.logger.Warn("Failed to marshal menu list for cache", zap.Error(err))
			return
		}
		if err := cm.redis.Set(bgCtx, listKey(version, name), data, cm.ttl).Err(); err != nil {
			cm.logger.Warn("Failed to cache menu list", zap.String("list", name), zap.Error(err))
		}
	}()
}

// Invalidate drops every cached list by bumping the version.
func (cm *RedisMenuCache) Invalidate(ctx context.Context) error {
	newVersion, err := cm.redis.Incr(ctx, CacheVersionKey).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate menu cache: %w", err)
	}
	cm.logger.Info("Menu cache invalidated", zap.Int64("new_version", newVersion))
	return nil
}

func (cm *RedisMenuCache) getCacheVersion(ctx context.Context) (int64, error) {
	ver, err := cm.redis.Get(ctx, CacheVersionKey).Int64()
	if err == nil && ver > 0 {
		return ver, nil
	}
	if errors.Is(err, redis.Nil) {
		// SetNX so a concurrent Invalidate is never overwritten
		if err := cm.redis.SetNX(ctx, CacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return cm.redis.Get(ctx, CacheVersionKey).Int64()
	}
	if err == nil {
		err = fmt.Errorf("invalid menu cache version %d", ver)
	}
	return 0, err
}

func listKey(version int64, name string) string {
	return fmt.Sprintf("%s%d:%s", MenuListCachePrefix, version, name)
}

// NoopCache never hits. Used when Redis is not configured.
type NoopCache struct{}

func (NoopCache) GetList(context.Context, string) ([]models.MenuItem, bool) { return nil, false }
func (NoopCache) SetListAsync(string, []models.MenuItem)                    {}
func (NoopCache) Invalidate(context.Context) error                          { return nil }
