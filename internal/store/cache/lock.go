package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "brokerage-matchmaking/internal/common/errors"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/store"
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// GenerationLock is a single-instance Redis lock built on SET NX with a TTL.
type GenerationLock struct {
	redis  *redis.Client
	logger logger.Logger
}

var _ store.GenerationLock = (*GenerationLock)(nil)

func NewGenerationLock(rdb *redis.Client, log logger.Logger) *GenerationLock {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &GenerationLock{redis: rdb, logger: log}
}

func (l *GenerationLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()

	ok, err := l.redis.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return func() {}, false, apperrors.NewStoreError("acquire_generation_lock", err)
	}
	if !ok {
		return func() {}, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.redis, []string{key}, token).Err(); err != nil {
			l.logger.Warn("Failed to release generation lock", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
	}
	return release, true, nil
}
