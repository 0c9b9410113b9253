package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/lalith-99/safebytes/internal/models"
	"github.com/lalith-99/safebytes/internal/repository/memory"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// unreachableRedis points at a port nothing listens on, so every command
// fails fast with "connection refused".
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestUserCache_FallsThroughWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore().Users()
	created, err := store.Create(ctx, "r@x.com", "Rosa's", "hash", models.RoleRestaurant)
	require.NoError(t, err)

	rdb := unreachableRedis()
	defer rdb.Close()
	c := NewUserCache(store, rdb, time.Minute, zap.NewNop())

	got, err := c.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.RoleRestaurant, got.Role)
}

func TestUserCache_PassThroughMethods(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore().Users()
	rdb := unreachableRedis()
	defer rdb.Close()
	c := NewUserCache(store, rdb, time.Minute, zap.NewNop())

	u, err := c.Create(ctx, "u@x.com", "U", "hash", models.RoleUser)
	require.NoError(t, err)

	byEmail, err := c.GetByEmail(ctx, "u@x.com", models.RoleUser)
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)
}

// TestUserCache_RoundTrip needs a live Redis: TEST_REDIS_URL=redis://localhost:6379/15
func TestUserCache_RoundTrip(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer rdb.Close()

	store := memory.NewStore().Users()
	u, err := store.Create(ctx, "cache@x.com", "Cached", "secret-hash", models.RoleAdmin)
	require.NoError(t, err)

	c := NewUserCache(store, rdb, time.Minute, zap.NewNop())
	defer c.Invalidate(ctx, u.ID)

	first, err := c.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, first)

	raw, err := rdb.Get(ctx, userKey(u.ID)).Result()
	require.NoError(t, err)
	assert.NotContains(t, raw, "secret-hash")

	second, err := c.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.RoleAdmin, second.Role)
	assert.Empty(t, second.PasswordHash)
}
