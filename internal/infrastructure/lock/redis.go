package lock

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig tunes lock acquisition
type RedisConfig struct {
	Prefix     string
	TTL        time.Duration
	RetryCount int
	RetryDelay time.Duration
}

// RedisLocker obtains per-key locks through redislock so several server
// processes can share one store.
type RedisLocker struct {
	client *redislock.Client
	cfg    RedisConfig
	logger *zap.Logger
}

// NewRedisLocker creates a locker on rdb
func NewRedisLocker(rdb redis.UniversalClient, cfg RedisConfig, logger *zap.Logger) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}
	return &RedisLocker{
		client: redislock.New(rdb),
		cfg:    cfg,
		logger: logger,
	}
}

// Lock obtains the lock for key, retrying with linear backoff
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.cfg.Prefix + "lock:" + key
	lock, err := l.client.Obtain(ctx, lockKey, l.cfg.TTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.cfg.RetryDelay), l.cfg.RetryCount),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		l.logger.Warn("Could not obtain lock", zap.String("key", lockKey))
		return nil, shared.NewDomainError(shared.CodeLockNotObtained, "Could not lock "+key+", try again")
	}
	if err != nil {
		return nil, err
	}

	return func() {
		// release outlives a cancelled request context
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Error("Failed to release lock", zap.String("key", lockKey), zap.Error(err))
		}
	}, nil
}

var _ shared.Locker = (*RedisLocker)(nil)
