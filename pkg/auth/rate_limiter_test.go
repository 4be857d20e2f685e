package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket_AllowsUpToBurst(t *testing.T) {
	limiter := NewTokenBucketLimiter(60, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "client")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should pass", i+1)
	}

	allowed, err := limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestTokenBucket_KeysAreIndependent(t *testing.T) {
	limiter := NewTokenBucketLimiter(60, 1)
	ctx := context.Background()

	allowed, _ := limiter.Allow(ctx, "a")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "a")
	assert.False(t, allowed)

	allowed, _ = limiter.Allow(ctx, "b")
	assert.True(t, allowed)
}

func TestTokenBucket_RefillsOverTime(t *testing.T) {
	// 6000 per minute refills one token every 10ms
	limiter := NewTokenBucketLimiter(6000, 1)
	ctx := context.Background()

	allowed, _ := limiter.Allow(ctx, "client")
	require.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "client")
	require.False(t, allowed)

	time.Sleep(30 * time.Millisecond)

	allowed, _ = limiter.Allow(ctx, "client")
	assert.True(t, allowed)
}

func TestTokenBucket_Reset(t *testing.T) {
	limiter := NewTokenBucketLimiter(60, 1)
	ctx := context.Background()

	allowed, _ := limiter.Allow(ctx, "client")
	require.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "client")
	require.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "client"))

	allowed, _ = limiter.Allow(ctx, "client")
	assert.True(t, allowed)
}

func TestIPAndUserLimitersUseSeparateKeyspaces(t *testing.T) {
	ip := NewIPRateLimiter(60, 1)
	user := NewUserRateLimiter(60, 1)
	ctx := context.Background()

	allowed, _ := ip.Allow(ctx, "10.0.0.1")
	assert.True(t, allowed)
	allowed, _ = user.Allow(ctx, "10.0.0.1")
	assert.True(t, allowed)
}
