package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestOffsetStore(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewOffsetStore(client)
	ctx := context.Background()

	offset, err := store.GetOffset(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), offset)

	require.NoError(t, store.SaveOffset(ctx, "b1", 103))
	offset, err = store.GetOffset(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(103), offset)

	t.Run("never moves backwards", func(t *testing.T) {
		require.NoError(t, store.SaveOffset(ctx, "b1", 90))
		offset, err := store.GetOffset(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, int64(103), offset)
	})

	t.Run("branches are independent", func(t *testing.T) {
		offset, err := store.GetOffset(ctx, "b2")
		require.NoError(t, err)
		assert.Equal(t, int64(0), offset)
	})

	t.Run("corrupt value surfaces an error", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, pollOffsetKeyPrefix+"b3", "abc", 0).Err())
		_, err := store.GetOffset(ctx, "b3")
		assert.Error(t, err)
	})
}

func TestEventClaimStore(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewEventClaimStore(client)
	ctx := context.Background()

	claimed, done, err := store.Claim(ctx, "evt-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.False(t, done)
	assert.Equal(t, time.Minute, mr.TTL(eventClaimKeyPrefix+"evt-1"))

	claimed, done, err = store.Claim(ctx, "evt-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed, "second claim must lose")
	assert.False(t, done, "a pending claim is still in flight")

	t.Run("release lets a redelivery retry", func(t *testing.T) {
		require.NoError(t, store.Release(ctx, "evt-1"))
		claimed, _, err := store.Claim(ctx, "evt-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("completed claim reports done", func(t *testing.T) {
		require.NoError(t, store.MarkDone(ctx, "evt-1", time.Hour))
		require.NoError(t, store.Release(ctx, "evt-1"))
		claimed, done, err := store.Claim(ctx, "evt-1", time.Minute)
		require.NoError(t, err)
		assert.False(t, claimed)
		assert.True(t, done)
		assert.Equal(t, time.Hour, mr.TTL(eventClaimKeyPrefix+"evt-1"))
	})

	t.Run("pending claim expires", func(t *testing.T) {
		claimed, _, err := store.Claim(ctx, "evt-2", time.Minute)
		require.NoError(t, err)
		require.True(t, claimed)

		mr.FastForward(2 * time.Minute)
		claimed, _, err = store.Claim(ctx, "evt-2", time.Minute)
		require.NoError(t, err)
		assert.True(t, claimed)
	})
}
