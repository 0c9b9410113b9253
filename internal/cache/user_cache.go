// Package cache holds read-through caches in front of the repositories.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/safebytes/internal/models"
	"github.com/lalith-99/safebytes/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// UserCache caches user records by id in Redis.
//
// Every thread operation resolves the caller's role with GetByID, so this
// is the hottest read in the service. Entries expire after ttl; a role
// change therefore takes at most ttl to apply. Redis failures are logged
// and the call falls through to the store: the cache never turns a
// working request into an error.
type UserCache struct {
	next   repository.UserRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ repository.UserRepository = (*UserCache)(nil)

func NewUserCache(next repository.UserRepository, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *UserCache {
	return &UserCache{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func userKey(id uuid.UUID) string {
	return "safebytes:user:" + id.String()
}

// cachedUser is the stored shape. models.User hides PasswordHash from
// JSON, and the hash has no business in the cache anyway.
type cachedUser struct {
	ID          uuid.UUID   `json:"id"`
	Email       string      `json:"email"`
	DisplayName string      `json:"display_name"`
	Role        models.Role `json:"role"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (c *UserCache) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	raw, err := c.rdb.Get(ctx, userKey(userID)).Bytes()
	switch {
	case err == nil:
		var cu cachedUser
		if jsonErr := json.Unmarshal(raw, &cu); jsonErr == nil {
			return &models.User{
				ID:          cu.ID,
				Email:       cu.Email,
				DisplayName: cu.DisplayName,
				Role:        cu.Role,
				CreatedAt:   cu.CreatedAt,
			}, nil
		}
		c.logger.Warn("corrupt user cache entry", zap.String("user_id", userID.String()))
	case errors.Is(err, redis.Nil):
		// miss
	default:
		c.logger.Warn("user cache read failed", zap.String("user_id", userID.String()), zap.Error(err))
	}

	user, err := c.next.GetByID(ctx, userID)
	if err != nil || user == nil {
		// Absence is not cached: a user created a moment later must be
		// visible on the next request.
		return user, err
	}

	payload, err := json.Marshal(cachedUser{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		CreatedAt:   user.CreatedAt,
	})
	if err == nil {
		if err := c.rdb.Set(ctx, userKey(userID), payload, c.ttl).Err(); err != nil {
			c.logger.Warn("user cache write failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
	return user, nil
}

// GetByEmail is used by login and needs the password hash; it always
// goes to the store.
func (c *UserCache) GetByEmail(ctx context.Context, email string, role models.Role) (*models.User, error) {
	return c.next.GetByEmail(ctx, email, role)
}

func (c *UserCache) Create(ctx context.Context, email, displayName, passwordHash string, role models.Role) (*models.User, error) {
	return c.next.Create(ctx, email, displayName, passwordHash, role)
}

// Invalidate drops a cached user, e.g. after an out-of-band role change.
func (c *UserCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.rdb.Del(ctx, userKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate user cache: %w", err)
	}
	return nil
}
