package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSlidingWindowAllow(t *testing.T) {
	mr, client := newRedis(t)
	limiter := SlidingWindow{Client: client, Prefix: "test:"}

	ctx := context.Background()
	window := 2 * time.Second
	max := 2

	for i := 0; i < max; i++ {
		allowed, remaining, _, err := limiter.Allow(ctx, "key", window, max)
		require.NoError(t, err)
		require.True(t, allowed, "request %d", i)
		require.Equal(t, max-(i+1), remaining)
	}

	allowed, remaining, _, err := limiter.Allow(ctx, "key", window, max)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)

	mr.FastForward(window)

	allowed, _, _, err = limiter.Allow(ctx, "key", window, max)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestSlidingWindowDropsRejectedEvents(t *testing.T) {
	_, client := newRedis(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := SlidingWindow{Client: client, Prefix: "test:", Now: func() time.Time { return now }}
	ctx := context.Background()

	allowed, _, reset, err := limiter.Allow(ctx, "ip", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, now.Add(time.Minute), reset)

	for i := 0; i < 3; i++ {
		now = now.Add(10 * time.Second)
		allowed, _, reset, err = limiter.Allow(ctx, "ip", time.Minute, 1)
		require.NoError(t, err)
		require.False(t, allowed)
		require.Equal(t, time.Date(2024, 6, 1, 12, 1, 0, 0, time.UTC), reset)
	}
	count, err := client.ZCard(ctx, "test:ip").Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	now = time.Date(2024, 6, 1, 12, 1, 1, 0, time.UTC)
	allowed, _, _, err = limiter.Allow(ctx, "ip", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestFixedWindowAllow(t *testing.T) {
	_, client := newRedis(t)
	limiter, err := NewFixedWindow(client, "lookup")
	require.NoError(t, err)

	ctx := context.Background()
	allowed, remaining, reset, err := limiter.Allow(ctx, "10.0.0.1", time.Minute, 2)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 1, remaining)
	require.True(t, reset.After(time.Now().Add(-time.Second)))

	_, _, _, err = limiter.Allow(ctx, "10.0.0.1", time.Minute, 2)
	require.NoError(t, err)
	allowed, _, _, err = limiter.Allow(ctx, "10.0.0.1", time.Minute, 2)
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, _, _, err = limiter.Allow(ctx, "10.0.0.2", time.Minute, 2)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestDisabledLimitersAllowEverything(t *testing.T) {
	var fixed *FixedWindow
	allowed, _, _, err := fixed.Allow(context.Background(), "k", time.Second, 1)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, _, _, err = SlidingWindow{}.Allow(context.Background(), "k", time.Second, 1)
	require.NoError(t, err)
	require.True(t, allowed)
}
