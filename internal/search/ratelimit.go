package search

import (
	"sync"
	"time"
)

// IPRateLimiter hands each client a bucket of search tokens that is topped up
// to capacity once per refill window. Buckets idle for several windows are
// pruned so one-off clients do not accumulate.
type IPRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	capacity  int
	window    time.Duration
	now       func() time.Time
	lastPrune time.Time
}

type bucket struct {
	tokens   int
	windowAt time.Time
	seenAt   time.Time
}

// idleWindows is how many refill windows a bucket may sit unused.
const idleWindows = 4

func NewIPRateLimiter(capacity int, refill time.Duration) *IPRateLimiter {
	if capacity < 1 {
		capacity = 1
	}
	return &IPRateLimiter{
		buckets:  make(map[string]*bucket),
		capacity: capacity,
		window:   refill,
		now:      time.Now,
	}
}

// Allow spends one token from the client's bucket.
func (rl *IPRateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.prune(now)

	b, ok := rl.buckets[client]
	if !ok {
		b = &bucket{tokens: rl.capacity, windowAt: now}
		rl.buckets[client] = b
	}
	b.seenAt = now
	if now.Sub(b.windowAt) >= rl.window {
		b.tokens = rl.capacity
		b.windowAt = now
	}
	if b.tokens == 0 {
		return false
	}
	b.tokens--
	return true
}

// Clients reports how many buckets are tracked.
func (rl *IPRateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

func (rl *IPRateLimiter) prune(now time.Time) {
	idle := rl.window * idleWindows
	if now.Sub(rl.lastPrune) < rl.window {
		return
	}
	rl.lastPrune = now
	for k, b := range rl.buckets {
		if now.Sub(b.seenAt) >= idle {
			delete(rl.buckets, k)
		}
	}
}

var _ RateLimiter = (*IPRateLimiter)(nil)
