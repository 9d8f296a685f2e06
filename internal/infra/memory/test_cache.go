package memory

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"quiz-testing-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// TestLoader fetches a test snapshot from the backing store.
type TestLoader interface {
	LoadTest(ctx context.Context, testID string) (domain.Test, error)
}

// TestCache caches test snapshots with TTL to avoid repeated DB hits.
type TestCache struct {
	loader TestLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedTest
}

type cachedTest struct {
	test      domain.Test
	expiresAt time.Time
}

func NewTestCache(loader TestLoader, ttl time.Duration) *TestCache {
	return &TestCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		cache:  make(map[string]cachedTest),
	}
}

func (c *TestCache) GetTest(ctx context.Context, testID string) (domain.Test, error) {
	if test, ok := c.lookup(testID, c.clock()); ok {
		return test, nil
	}

	result, err, _ := c.sf.Do(testID, func() (interface{}, error) {
		now := c.clock()
		if test, ok := c.lookup(testID, now); ok {
			return test, nil
		}

		test, err := c.loader.LoadTest(ctx, testID)
		if err != nil {
			return domain.Test{}, err
		}

		if ttl := c.ttlWithJitter(); ttl > 0 {
			c.mu.Lock()
			c.cache[testID] = cachedTest{test: test, expiresAt: now.Add(ttl)}
			c.mu.Unlock()
		}
		return test, nil
	})
	if err != nil {
		return domain.Test{}, err
	}
	return cloneTest(result.(domain.Test)), nil
}

func (c *TestCache) TestExists(ctx context.Context, testID string) (bool, error) {
	if _, err := c.GetTest(ctx, testID); err != nil {
		if errors.Is(err, domain.ErrTestNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Invalidate drops the cached snapshot of testID.
func (c *TestCache) Invalidate(_ context.Context, testID string) error {
	c.mu.Lock()
	delete(c.cache, testID)
	c.mu.Unlock()
	return nil
}

func (c *TestCache) lookup(testID string, now time.Time) (domain.Test, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[testID]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Test{}, false
	}
	return cloneTest(entry.test), true
}

func (c *TestCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
