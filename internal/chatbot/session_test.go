package chatbot

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisSessionStore(client, time.Hour), mr
}

func TestRedisSessionStoreAppendGet(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", Turn{Role: "user", Content: "hello"}))
	require.NoError(t, store.Append(ctx, "s1", Turn{Role: "assistant", Content: "hi there"}))

	turns, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "hello", turns[0].Content)
	assert.Equal(t, "assistant", turns[1].Role)
}

func TestRedisSessionStoreMissingSession(t *testing.T) {
	store, _ := setupRedisStore(t)

	turns, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestRedisSessionStoreClear(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", Turn{Role: "user", Content: "hello"}))
	require.NoError(t, store.Clear(ctx, "s1"))

	turns, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestRedisSessionStoreTTL(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", Turn{Role: "user", Content: "hello"}))

	// Appends set the configured TTL
	ttl := mr.TTL(sessionKey("s1"))
	assert.Equal(t, time.Hour, ttl)

	// Sessions vanish once the TTL elapses
	mr.FastForward(2 * time.Hour)
	turns, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestRedisSessionStoreExpireOverride(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", Turn{Role: "user", Content: "hello"}))
	require.NoError(t, store.Expire(ctx, "s1", time.Minute))

	assert.Equal(t, time.Minute, mr.TTL(sessionKey("s1")))
}

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", Turn{Role: "user", Content: "a"}))
	require.NoError(t, store.Append(ctx, "s1", Turn{Role: "assistant", Content: "b"}))

	turns, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)

	require.NoError(t, store.Clear(ctx, "s1"))
	turns, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", Turn{Role: "user", Content: "a"}))
	require.NoError(t, store.Expire(ctx, "s1", -time.Second))

	turns, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}
