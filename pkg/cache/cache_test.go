package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duccv/movie-rating-api/config"
)

func newTestCache(t *testing.T, policy Policy, size int) (*MemoryCache, *time.Time) {
	t.Helper()
	c := NewMemoryCache(policy, size, time.Minute)
	t.Cleanup(c.Stop)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.mu.Lock()
	c.now = func() time.Time { return now }
	c.mu.Unlock()
	return c, &now
}

func TestMemoryCache_LRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(t, LRU, 2)

	c.Set("a", 1)
	c.Set("b", 2)
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Set("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestMemoryCache_FIFOEvictsOldestInsert(t *testing.T) {
	c, _ := newTestCache(t, FIFO, 2)

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok, "reads do not refresh FIFO order")
	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c, now := newTestCache(t, LRU, 10)

	c.SetWithTTL("short", "x", time.Second)
	c.Set("long", "y")

	*now = now.Add(2 * time.Second)
	_, ok := c.Get("short")
	assert.False(t, ok)

	assert.Equal(t, 0, c.removeExpired())
	*now = now.Add(time.Hour)
	assert.Equal(t, 1, c.removeExpired())
	assert.Zero(t, c.Size())
}

func TestMemoryCache_DeleteClearStop(t *testing.T) {
	c, _ := newTestCache(t, LRU, 10)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	assert.Zero(t, c.Size())
	assert.Equal(t, 10, c.MaxSize())

	c.Stop()
	c.Stop()
}

func TestNewCache_FromConfig(t *testing.T) {
	c := NewCache(config.CacheConfig{Type: "FIFO", Capacity: 5, DefaultTTL: 30})
	defer c.Stop()
	assert.Equal(t, FIFO, c.(*MemoryCache).policy)

	d := NewCache(config.CacheConfig{Type: "unknown"})
	defer d.Stop()
	assert.Equal(t, LRU, d.(*MemoryCache).policy)
	assert.Equal(t, 1000, d.MaxSize())
}

type item struct {
	Name string `json:"name"`
}

func TestStore_GetOrLoad(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryCache(LRU, 10, time.Minute)
	store := NewStore(mem, nil, time.Minute, time.Minute)
	defer store.Close()

	var calls atomic.Int32
	load := func(context.Context) (item, error) {
		calls.Add(1)
		return item{Name: "matrix"}, nil
	}

	got, err := GetOrLoad(ctx, store, "movie:1", load)
	require.NoError(t, err)
	assert.Equal(t, "matrix", got.Name)

	got, err = GetOrLoad(ctx, store, "movie:1", load)
	require.NoError(t, err)
	assert.Equal(t, "matrix", got.Name)
	assert.EqualValues(t, 1, calls.Load())

	store.Invalidate(ctx, "movie:1")
	_, err = GetOrLoad(ctx, store, "movie:1", load)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestStore_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryCache(LRU, 10, time.Minute), nil, time.Minute, time.Minute)
	defer store.Close()

	boom := errors.New("boom")
	_, err := GetOrLoad(ctx, store, "k", func(context.Context) (item, error) { return item{}, boom })
	assert.ErrorIs(t, err, boom)

	got, err := GetOrLoad(ctx, store, "k", func(context.Context) (item, error) { return item{Name: "ok"}, nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Name)
}

func TestStore_CoalescesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryCache(LRU, 10, time.Minute), nil, time.Minute, time.Minute)
	defer store.Close()

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (item, error) {
		calls.Add(1)
		<-release
		return item{Name: "x"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = GetOrLoad(ctx, store, "hot", load)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(2))
}

func TestStore_InvalidateDuringLoadSkipsCaching(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryCache(LRU, 10, time.Minute), nil, time.Minute, time.Minute)
	defer store.Close()

	_, err := GetOrLoad(ctx, store, "k", func(context.Context) (item, error) {
		store.Invalidate(ctx, "k")
		return item{Name: "stale"}, nil
	})
	require.NoError(t, err)

	_, ok := store.mem.Get("k")
	assert.False(t, ok)
}

func TestStore_NilDisablesCaching(t *testing.T) {
	var calls int
	for i := 0; i < 2; i++ {
		_, err := GetOrLoad(context.Background(), nil, "k", func(context.Context) (item, error) {
			calls++
			return item{}, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)

	var s *Store
	s.Invalidate(context.Background(), "k")
	s.Close()
}

func TestStore_LoadBookkeepingIsReleased(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryCache(LRU, 10, time.Minute), nil, time.Minute, time.Minute)
	defer store.Close()

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("movie:%d", i)
		_, err := GetOrLoad(ctx, store, key, func(context.Context) (item, error) {
			if i%2 == 0 {
				store.Invalidate(ctx, key)
			}
			return item{Name: key}, nil
		})
		require.NoError(t, err)
		store.Invalidate(ctx, key)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.inflight)
}
