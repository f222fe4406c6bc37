package bucket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryBucketStore_AllowsUpToLimit(t *testing.T) {
	store := NewInMemoryBucketStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := store.Allow(ctx, "rl:intake:203.0.113.7", 5, 15*time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5-i-1, result.Remaining)
	}

	result, err := store.Allow(ctx, "rl:intake:203.0.113.7", 5, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed, "sixth request in the window is limited")
	assert.Equal(t, 0, result.Remaining)
	assert.GreaterOrEqual(t, result.RetryAfter, 1)
}

func TestInMemoryBucketStore_KeysAreIndependent(t *testing.T) {
	store := NewInMemoryBucketStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Allow(ctx, "rl:intake:203.0.113.7", 3, time.Minute)
		require.NoError(t, err)
	}

	blocked, err := store.Allow(ctx, "rl:intake:203.0.113.7", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	other, err := store.Allow(ctx, "rl:intake:198.51.100.9", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestInMemoryBucketStore_WindowSlides(t *testing.T) {
	store := NewInMemoryBucketStore()
	ctx := context.Background()

	_, err := store.Allow(ctx, "rl:intake:x", 1, 30*time.Millisecond)
	require.NoError(t, err)

	blocked, err := store.Allow(ctx, "rl:intake:x", 1, 30*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	time.Sleep(40 * time.Millisecond)

	recovered, err := store.Allow(ctx, "rl:intake:x", 1, 30*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, recovered.Allowed, "bucket drains after the window passes")
}

func TestInMemoryBucketStore_Reset(t *testing.T) {
	store := NewInMemoryBucketStore()
	ctx := context.Background()

	_, err := store.Allow(ctx, "rl:intake:y", 1, time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Reset(ctx, "rl:intake:y"))

	result, err := store.Allow(ctx, "rl:intake:y", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}
