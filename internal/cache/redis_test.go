package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aline875/back/internal/config"
	"github.com/Aline875/back/internal/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := models.User{
		ID:        1,
		Username:  "alice",
		Email:     "alice@x.com",
		Role:      models.RoleCommon,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	stored, err := cache.SetIfVersion(ctx, "user:1", expected, 0, time.Minute)
	require.NoError(t, err)
	require.True(t, stored)

	var actual models.User
	found, err := cache.Get(ctx, "user:1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestSet_DoesNotStorePasswordHash(t *testing.T) {
	cache, mr := setupTestCache(t)

	u := models.User{ID: 2, PasswordHash: "$2a$10$secret"}
	_, err := cache.SetIfVersion(context.Background(), "user:2", u, 0, time.Minute)
	require.NoError(t, err)

	raw, err := mr.Get("user:2")
	require.NoError(t, err)
	assert.NotContains(t, raw, "secret")
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out models.User
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExpiration(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	_, err := cache.SetIfVersion(ctx, "key", "value", 0, time.Minute)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	var out string
	found, err := cache.Get(ctx, "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	_, err := cache.SetIfVersion(ctx, "key", "value", 0, time.Minute)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, "key"))

	var out string
	found, err := cache.Get(ctx, "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestVersion(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	version, err := cache.Version(ctx, "user:1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	require.NoError(t, cache.Invalidate(ctx, "user:1"))
	require.NoError(t, cache.Invalidate(ctx, "user:1"))

	version, err = cache.Version(ctx, "user:1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.Equal(t, versionTTL, mr.TTL("user:1:ver"))
}

func TestSetIfVersion_SkipsAfterInvalidate(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	version, err := cache.Version(ctx, "user:1")
	require.NoError(t, err)

	// Запись изменилась, пока читалось значение для кеша.
	require.NoError(t, cache.Invalidate(ctx, "user:1"))

	stored, err := cache.SetIfVersion(ctx, "user:1", "old", version, time.Minute)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, mr.Exists("user:1"))

	version, err = cache.Version(ctx, "user:1")
	require.NoError(t, err)
	stored, err = cache.SetIfVersion(ctx, "user:1", "new", version, time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)

	var out string
	found, err := cache.Get(ctx, "user:1", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "new", out)
}

func TestGetInvalidJSON(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Db.Set(ctx, "bad", []byte("not-json"), time.Minute).Err())

	var out models.User
	found, err := cache.Get(ctx, "bad", &out)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestInitServer_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	cache, err := InitServer(context.Background(), config.RedisConnection{
		AddressRedis: addr,
		DialTimeout:  100 * time.Millisecond,
	})
	assert.Error(t, err)
	assert.Nil(t, cache)
}
