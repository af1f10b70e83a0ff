package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ecoverse/backend/internal/logger"
	"github.com/ecoverse/backend/internal/utils"
)

// Cache is a TTL cache for derived payloads (dashboard summaries, dataset
// catalogs). It is never a source of truth: every value is recomputable
// from the store, so all cache errors degrade to a miss.
type Cache interface {
	GetJSON(ctx context.Context, cacheKey string, out any) bool
	SetJSON(ctx context.Context, cacheKey string, val any, ttl time.Duration)
	Invalidate(ctx context.Context, cacheKeys ...string)
}

// NewCacheFromEnv returns a redis-backed cache when REDIS_ADDR is set and a
// no-op cache otherwise, so the service runs without redis.
func NewCacheFromEnv(log *logger.Logger) Cache {
	addr := utils.GetEnv("REDIS_ADDR", "", log)
	if addr == "" {
		log.Info("REDIS_ADDR not set, caching disabled")
		return noopCache{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: utils.GetEnv("REDIS_PASSWORD", "", log),
		DB:       utils.GetEnvAsInt("REDIS_DB", 0, log),
	})
	return &redisCache{
		log:    log.With("service", "Cache"),
		client: client,
	}
}

type redisCache struct {
	log    *logger.Logger
	client *redis.Client
}

func (rc *redisCache) GetJSON(ctx context.Context, cacheKey string, out any) bool {
	raw, err := rc.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			rc.log.Warn("Cache get failed", "key", cacheKey, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		rc.log.Warn("Cache entry not decodable, dropping", "key", cacheKey, "error", err)
		rc.Invalidate(ctx, cacheKey)
		return false
	}
	return true
}

func (rc *redisCache) SetJSON(ctx context.Context, cacheKey string, val any, ttl time.Duration) {
	raw, err := json.Marshal(val)
	if err != nil {
		rc.log.Warn("Cache set marshal failed", "key", cacheKey, "error", err)
		return
	}
	if err := rc.client.Set(ctx, cacheKey, raw, ttl).Err(); err != nil {
		rc.log.Warn("Cache set failed", "key", cacheKey, "error", err)
	}
}

func (rc *redisCache) Invalidate(ctx context.Context, cacheKeys ...string) {
	if len(cacheKeys) == 0 {
		return
	}
	if err := rc.client.Del(ctx, cacheKeys...).Err(); err != nil {
		rc.log.Warn("Cache invalidate failed", "keys", cacheKeys, "error", err)
	}
}

type noopCache struct{}

func (noopCache) GetJSON(context.Context, string, any) bool           { return false }
func (noopCache) SetJSON(context.Context, string, any, time.Duration) {}
func (noopCache) Invalidate(context.Context, ...string)               {}
