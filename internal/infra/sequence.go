package infra

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// raiseFloorScript sets KEYS[1] to ARGV[1] unless it already holds a larger value.
var raiseFloorScript = redis.NewScript(`
local key = KEYS[1]
local floor = tonumber(ARGV[1])

local current = tonumber(redis.call('GET', key) or '0')
if current < floor then
	redis.call('SET', key, floor)
	return floor
end

return current
`)

// RedisSequencer hands out monotonically increasing integers with INCRBY.
// It backs both the barcode serial and the per-month receipt number.
type RedisSequencer struct {
	client *redis.Client
}

func NewRedisSequencer(client *redis.Client) *RedisSequencer {
	return &RedisSequencer{client: client}
}

// Next reserves n values and returns the last one.
func (s *RedisSequencer) Next(ctx context.Context, key string, n int64) (int64, error) {
	return s.client.IncrBy(ctx, key, n).Result()
}

// EnsureAtLeast raises key to floor if it is lower. Safe to run concurrently
// with Next.
func (s *RedisSequencer) EnsureAtLeast(ctx context.Context, key string, floor int64) error {
	return raiseFloorScript.Run(ctx, s.client, []string{key}, floor).Err()
}
