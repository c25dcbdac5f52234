package requestcache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/communigo/go-community-admin/internal/requestcache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCacheIdempotenceWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	cache := requestcache.New(requestcache.WithNowTime[string](clock.Now))

	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		return "payload", nil
	}

	first, err := cache.Do(context.Background(), "k", fetch)
	require.NoError(t, err)
	second, err := cache.Do(context.Background(), "k", fetch)
	require.NoError(t, err)

	require.Equal(t, 1, calls)
	require.Equal(t, "payload", first)
	require.Equal(t, first, second)
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	cache := requestcache.New(requestcache.WithNowTime[string](clock.Now))

	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		return "payload", nil
	}

	_, err := cache.Do(context.Background(), "k", fetch)
	require.NoError(t, err)

	// At exactly the TTL the entry is still valid
	clock.Advance(30 * time.Second)
	_, err = cache.Do(context.Background(), "k", fetch)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	clock.Advance(time.Second)
	_, err = cache.Do(context.Background(), "k", fetch)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestCacheKeysAreIndependent(t *testing.T) {
	cache := requestcache.New[string]()

	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		return "payload", nil
	}

	_, err := cache.Do(context.Background(), "search=a", fetch)
	require.NoError(t, err)
	_, err = cache.Do(context.Background(), "search=b", fetch)
	require.NoError(t, err)

	require.Equal(t, 2, calls)
}

func TestCacheInFlightDeduplication(t *testing.T) {
	cache := requestcache.New[string]()

	var executions atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(context.Context) (string, error) {
		executions.Add(1)
		close(started)
		<-release
		return "payload", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := cache.Do(context.Background(), "k", fetch)
		require.NoError(t, err)
		results[0] = v
	}()

	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := cache.Do(context.Background(), "k", fetch)
		require.NoError(t, err)
		results[1] = v
	}()

	// Give the second caller time to join the in-flight request
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), executions.Load())
	require.Equal(t, "payload", results[0])
	require.Equal(t, "payload", results[1])
}

func TestCacheDoesNotCacheFailures(t *testing.T) {
	cache := requestcache.New[string]()

	calls := 0
	fetchErr := errors.New("backend unavailable")
	fetch := func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", fetchErr
		}
		return "payload", nil
	}

	_, err := cache.Do(context.Background(), "k", fetch)
	require.ErrorIs(t, err, fetchErr)

	// The failed call released its in-flight slot and cached nothing
	v, err := cache.Do(context.Background(), "k", fetch)
	require.NoError(t, err)
	require.Equal(t, "payload", v)
	require.Equal(t, 2, calls)
}

func TestCacheCustomTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	cache := requestcache.New(
		requestcache.WithTTL[int](time.Second),
		requestcache.WithNowTime[int](clock.Now),
	)

	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	_, err := cache.Do(context.Background(), "k", fetch)
	require.NoError(t, err)
	clock.Advance(2 * time.Second)
	v, err := cache.Do(context.Background(), "k", fetch)
	require.NoError(t, err)
	require.Equal(t, 2, v)
}
