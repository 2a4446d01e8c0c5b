package search

import (
	"context"
	"sync"
	"time"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/obs"
)

type CacheService interface {
	GetOrCompute(ctx context.Context, key string, fn func(ctx context.Context) (AggregatedResult, error)) (AggregatedResult, error)
}

type cacheEntry struct {
	val     AggregatedResult
	expiry  time.Time
	ready   bool
	waiters []chan resultOrErr
}

type resultOrErr struct {
	res AggregatedResult
	err error
}

// Cache collapses concurrent identical searches into one provider call and
// keeps successful results for ttl. Failures are handed to every waiter but
// never stored.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	items   map[string]*cacheEntry
	metrics *obs.Metrics
}

func NewCache(ttl time.Duration, m *obs.Metrics) *Cache {
	return &Cache{ttl: ttl, items: make(map[string]*cacheEntry), metrics: m}
}

func (c *Cache) GetOrCompute(ctx context.Context, key string, fn func(ctx context.Context) (AggregatedResult, error)) (AggregatedResult, error) {
	c.mu.Lock()
	entry, found := c.items[key]
	now := time.Now()

	if found && entry.ready && now.Before(entry.expiry) {
		val := entry.val
		c.mu.Unlock()
		c.metrics.IncCacheHits()
		val.Stats.Cache = "hit"
		return val, nil
	}

	// join the computation already in flight
	if found && !entry.ready {
		ch := make(chan resultOrErr, 1)
		entry.waiters = append(entry.waiters, ch)
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return AggregatedResult{}, ctx.Err()
		case r := <-ch:
			return r.res, r.err
		}
	}

	entry = &cacheEntry{}
	c.items[key] = entry
	c.mu.Unlock()

	res, err := fn(ctx)

	c.mu.Lock()
	waiters := entry.waiters
	entry.waiters = nil
	if err != nil {
		if c.items[key] == entry {
			delete(c.items, key)
		}
	} else {
		entry.val = res
		entry.expiry = time.Now().Add(c.ttl)
		entry.ready = true
	}
	c.mu.Unlock()

	for _, w := range waiters {
		w <- resultOrErr{res: res, err: err}
		close(w)
	}
	return res, err
}

// Len reports how many keys are cached or in flight.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
