//go:build integration

package bucket

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serviapp/internal/ratelimit/models"
	"serviapp/pkg/testutil/containers"
)

func TestRedisBucketStore(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	st := NewRedisBucketStore(rc.Client)
	ctx := context.Background()

	flush := func() {
		require.NoError(t, rc.FlushAll(ctx))
	}

	t.Run("allows up to the limit then blocks", func(t *testing.T) {
		flush()
		key := models.IntakeKey("203.0.113.7")

		var last *models.RateLimitResult
		for i := 0; i < 5; i++ {
			res, err := st.Allow(ctx, key, 5, time.Minute)
			require.NoError(t, err)
			assert.True(t, res.Allowed, "request %d should be allowed", i+1)
			last = res
		}
		assert.Equal(t, 0, last.Remaining)

		res, err := st.Allow(ctx, key, 5, time.Minute)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Positive(t, res.RetryAfter)
	})

	t.Run("keys are independent", func(t *testing.T) {
		flush()
		for i := 0; i < 5; i++ {
			_, err := st.Allow(ctx, models.IntakeKey("203.0.113.7"), 5, time.Minute)
			require.NoError(t, err)
		}

		res, err := st.Allow(ctx, models.IntakeKey("198.51.100.9"), 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("window slides", func(t *testing.T) {
		flush()
		key := models.IntakeKey("203.0.113.7")

		for i := 0; i < 2; i++ {
			_, err := st.Allow(ctx, key, 2, 200*time.Millisecond)
			require.NoError(t, err)
		}
		res, err := st.Allow(ctx, key, 2, 200*time.Millisecond)
		require.NoError(t, err)
		assert.False(t, res.Allowed)

		time.Sleep(250 * time.Millisecond)

		res, err = st.Allow(ctx, key, 2, 200*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("concurrent requests never exceed the limit", func(t *testing.T) {
		flush()
		key := models.IntakeKey("203.0.113.7")

		const racers = 20
		const limit = 5
		var allowed int64
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				res, err := st.Allow(ctx, key, limit, time.Minute)
				if !assert.NoError(t, err) {
					return
				}
				if res.Allowed {
					atomic.AddInt64(&allowed, 1)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int64(limit), allowed)
	})

	t.Run("reset clears the window", func(t *testing.T) {
		flush()
		key := models.IntakeKey("203.0.113.7")

		for i := 0; i < 5; i++ {
			_, err := st.Allow(ctx, key, 5, time.Minute)
			require.NoError(t, err)
		}
		require.NoError(t, st.Reset(ctx, key))

		res, err := st.Allow(ctx, key, 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})
}
