package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) Cache {
	t.Helper()
	c := NewMemoryCache(&Config{MaxKeys: 3, CleanupInterval: 0}, zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemoryCache_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Set(ctx, "a", "value", time.Minute))
	v, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "value", v)

	require.NoError(t, c.Set(ctx, "short", 1, time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	assert.False(t, c.Exists(ctx, "short"))

	require.NoError(t, c.Delete(ctx, "a"))
	assert.False(t, c.Exists(ctx, "a"))
}

func TestMemoryCache_IncrementIsAtomic(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	const workers = 50
	seen := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Increment(ctx, "seq:application_id", 1)
			assert.NoError(t, err)
			seen <- v
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[int64]bool{}
	for v := range seen {
		unique[v] = true
	}
	assert.Len(t, unique, workers)
	for i := int64(1); i <= workers; i++ {
		assert.True(t, unique[i], "missing %d", i)
	}
}

func TestMemoryCache_CountersSurviveEviction(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	_, err := c.Increment(ctx, "counter", 1)
	require.NoError(t, err)
	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, c.Set(ctx, k, k, time.Minute))
	}
	v, ok := c.Get(ctx, "counter")
	require.True(t, ok)
	assert.Equal(t, int64(1), v)
}

func TestNewCache_UnknownProvider(t *testing.T) {
	_, err := NewCache(&Config{Provider: "memcached"}, nil)
	assert.Error(t, err)
}
