// Package cache holds the Redis-backed pieces of the store layer: a read-through
// profile cache and the per-subject generation lock.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/common/metrics"
	"brokerage-matchmaking/internal/models"
	"brokerage-matchmaking/internal/store"
)

const (
	profileKeyPrefix  = "matchmaking:profile:"
	DefaultProfileTTL = 5 * time.Minute
)

// ProfileCache decorates a ProfileStore with a Redis read-through cache for
// single-profile lookups. Redis failures degrade to the underlying store.
type ProfileCache struct {
	next   store.ProfileStore
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

var _ store.ProfileStore = (*ProfileCache)(nil)

func NewProfileCache(next store.ProfileStore, rdb *redis.Client, ttl time.Duration, log logger.Logger) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &ProfileCache{next: next, redis: rdb, ttl: ttl, logger: log}
}

func profileKey(id string) string {
	return profileKeyPrefix + id
}

func (c *ProfileCache) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	key := profileKey(id)

	val, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p models.Profile
		if jsonErr := json.Unmarshal(val, &p); jsonErr == nil {
			metrics.ProfileCacheLookups.WithLabelValues("hit").Inc()
			return &p, nil
		}
		c.logger.Warn("Discarding undecodable cached profile", map[string]interface{}{"profileId": id})
		metrics.ProfileCacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.ProfileCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.ProfileCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("Profile cache read failed", map[string]interface{}{
			"profileId": id,
			"error":     err,
		})
	}

	p, err := c.next.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("Profile cache write failed", map[string]interface{}{
				"profileId": id,
				"error":     err,
			})
		}
	}
	return p, nil
}

// ListActiveBuyers is not cached; candidate sets must reflect current activity.
func (c *ProfileCache) ListActiveBuyers(ctx context.Context, limit int) ([]*models.Profile, error) {
	return c.next.ListActiveBuyers(ctx, limit)
}

// Invalidate drops the cached copy of a profile.
func (c *ProfileCache) Invalidate(ctx context.Context, id string) error {
	return c.redis.Del(ctx, profileKey(id)).Err()
}
