package infra

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrLockNotObtained is returned when the lock is still held after all retries.
var ErrLockNotObtained = errors.New("lock not obtained")

// RedisLocker serializes receipt and unit mutations across instances.
type RedisLocker struct {
	locker  *redislock.Client
	ttl     time.Duration
	backoff time.Duration
	retries int
}

// NewRedisLocker creates a locker whose locks expire after ttl. A waiting
// caller retries every 50ms for up to one ttl.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	backoff := 50 * time.Millisecond
	return &RedisLocker{
		locker:  redislock.New(client),
		ttl:     ttl,
		backoff: backoff,
		retries: int(ttl / backoff),
	}
}

// Lock blocks until key is held or the retries run out.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := l.locker.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.backoff), l.retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	}
	if err != nil {
		return nil, err
	}
	return func() {
		// Release on a fresh context so a cancelled request still frees the lock.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log.Warn().Err(err).Str("key", key).Msg("lock release failed")
		}
	}, nil
}
