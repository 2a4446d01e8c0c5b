package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCacheCollapse(t *testing.T) {
	cache := NewCache(2*time.Second, nil)
	var calls atomic.Int32
	fn := func(ctx context.Context) (AggregatedResult, error) {
		calls.Add(1)
		// simulate some work
		time.Sleep(50 * time.Millisecond)
		return AggregatedResult{}, nil
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.GetOrCompute(ctx, "k", fn)
		}()
	}
	wg.Wait()
	if calls.Load() != 1 {
		t.Fatalf("expected single compute got %d", calls.Load())
	}
}

func TestCacheMarksHits(t *testing.T) {
	cache := NewCache(time.Minute, nil)
	fn := func(ctx context.Context) (AggregatedResult, error) {
		return AggregatedResult{Stats: Stats{Cache: "miss"}}, nil
	}
	first, _ := cache.GetOrCompute(context.Background(), "k", fn)
	second, _ := cache.GetOrCompute(context.Background(), "k", fn)
	if first.Stats.Cache != "miss" || second.Stats.Cache != "hit" {
		t.Fatalf("got %q then %q", first.Stats.Cache, second.Stats.Cache)
	}
}

func TestCacheDoesNotKeepErrors(t *testing.T) {
	cache := NewCache(time.Minute, nil)
	calls := 0
	fn := func(ctx context.Context) (AggregatedResult, error) {
		calls++
		if calls == 1 {
			return AggregatedResult{}, errors.New("provider down")
		}
		return AggregatedResult{}, nil
	}
	if _, err := cache.GetOrCompute(context.Background(), "k", fn); err == nil {
		t.Fatal("expected first call to fail")
	}
	if cache.Len() != 0 {
		t.Fatalf("failed result was cached")
	}
	if _, err := cache.GetOrCompute(context.Background(), "k", fn); err != nil {
		t.Fatalf("retry should recompute: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 computes got %d", calls)
	}
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCache(10*time.Millisecond, nil)
	calls := 0
	fn := func(ctx context.Context) (AggregatedResult, error) {
		calls++
		return AggregatedResult{}, nil
	}
	cache.GetOrCompute(context.Background(), "k", fn)
	time.Sleep(20 * time.Millisecond)
	cache.GetOrCompute(context.Background(), "k", fn)
	if calls != 2 {
		t.Fatalf("expected expired entry to recompute, got %d calls", calls)
	}
}
