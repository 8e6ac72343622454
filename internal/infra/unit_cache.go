package infra

import (
	"context"
	"encoding/json"
	"time"

	"jourdash/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const unitCachePrefix = "unit:scan:"

// RedisUnitCache caches scan lookups. Redis errors are logged and treated
// as cache misses.
type RedisUnitCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisUnitCache(client *redis.Client, ttl time.Duration) *RedisUnitCache {
	return &RedisUnitCache{client: client, ttl: ttl}
}

func (c *RedisUnitCache) Get(ctx context.Context, barcode string) (*dto.UnitResponse, bool) {
	raw, err := c.client.Get(ctx, unitCachePrefix+barcode).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("barcode", barcode).Msg("unit cache read failed")
		}
		return nil, false
	}
	var u dto.UnitResponse
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, false
	}
	return &u, true
}

func (c *RedisUnitCache) Set(ctx context.Context, u dto.UnitResponse) {
	raw, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, unitCachePrefix+u.Barcode, raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("barcode", u.Barcode).Msg("unit cache write failed")
	}
}

func (c *RedisUnitCache) Invalidate(ctx context.Context, barcodes ...string) {
	if len(barcodes) == 0 {
		return
	}
	keys := make([]string, len(barcodes))
	for i, b := range barcodes {
		keys[i] = unitCachePrefix + b
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Int("keys", len(keys)).Msg("unit cache invalidation failed")
	}
}
