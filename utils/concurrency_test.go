package utils

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeySetNoDuplicates(t *testing.T) {
	s := NewKeySet()

	added := s.Add("cramers-123")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("cramers-123")
	if added {
		t.Error("second Add of same key should return false")
	}

	if !s.Contains("cramers-123") {
		t.Error("Contains should report an added key")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestKeySetConcurrency(t *testing.T) {
	s := NewKeySet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		pool.Submit(context.Background(), func(context.Context) {
			if s.Add("interflora-same") {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(3, 0)
	var running, peak int64

	for i := 0; i < 20; i++ {
		pool.Submit(context.Background(), func(context.Context) {
			n := atomic.AddInt64(&running, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&running, -1)
		})
	}
	pool.Wait()

	if peak > 3 {
		t.Errorf("peak concurrency: got %d, want <= 3", peak)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	pool := NewWorkerPool(1, 10) // one start every 100ms

	var mu sync.Mutex
	var timestamps []time.Time

	for i := 0; i < 3; i++ {
		pool.Submit(context.Background(), func(context.Context) {
			mu.Lock()
			timestamps = append(timestamps, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	if len(timestamps) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(timestamps))
	}
	total := timestamps[2].Sub(timestamps[0])
	min := 150 * time.Millisecond
	if total < min {
		t.Errorf("3 jobs at 10/s finished within %v; want at least %v", total, min)
	}
}

func TestWorkerPoolRunsJobsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewWorkerPool(1, 0)
	var ran int64
	var sawCancel int64
	for i := 0; i < 5; i++ {
		pool.Submit(ctx, func(ctx context.Context) {
			atomic.AddInt64(&ran, 1)
			if ctx.Err() != nil {
				atomic.AddInt64(&sawCancel, 1)
			}
		})
	}
	pool.Wait()

	if ran != 5 {
		t.Errorf("ran: got %d, want 5", ran)
	}
	if sawCancel != 5 {
		t.Errorf("jobs seeing cancelled ctx: got %d, want 5", sawCancel)
	}
}
