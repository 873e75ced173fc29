package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) Limiter {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewSlidingWindow(rdb, limit, window)
}

func TestAllow_WithinLimit(t *testing.T) {
	limiter := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "user_1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}
}

func TestAllow_FourthRequestDenied(t *testing.T) {
	limiter := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "user_1")
		require.NoError(t, err)
		require.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "user_1")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAllow_SubjectsAreIndependent(t *testing.T) {
	limiter := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "user_1")
		require.NoError(t, err)
		require.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "user_2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAllow_FailsClosedOnRedisError(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	limiter := NewSlidingWindow(rdb, 3, time.Minute)
	mr.Close()

	allowed, err := limiter.Allow(context.Background(), "user_1")
	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestAllow_WindowSlides(t *testing.T) {
	limiter := newTestLimiter(t, 1, 50*time.Millisecond)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "user_1")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "user_1")
	require.NoError(t, err)
	require.False(t, allowed)

	time.Sleep(60 * time.Millisecond)

	allowed, err = limiter.Allow(ctx, "user_1")
	require.NoError(t, err)
	assert.True(t, allowed)
}
