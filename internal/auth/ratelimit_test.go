package auth

import (
	"sync"
	"testing"
	"time"
)

func TestRateLimiterFixedWindow(t *testing.T) {
	limiter := NewIPRateLimiter(5, 15*time.Minute)

	for i := 0; i < 5; i++ {
		if !limiter.Allow("10.0.0.1") {
			t.Fatalf("request %d rejected inside limit", i+1)
		}
	}
	if limiter.Allow("10.0.0.1") {
		t.Error("6th request from same IP allowed")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Error("other IP throttled by neighbour's window")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	limiter := NewIPRateLimiter(2, 15*time.Minute)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return start }

	limiter.Allow("10.0.0.1")
	limiter.Allow("10.0.0.1")
	if limiter.Allow("10.0.0.1") {
		t.Fatal("over-limit request allowed")
	}

	// Still inside the same window.
	limiter.now = func() time.Time { return start.Add(14 * time.Minute) }
	if limiter.Allow("10.0.0.1") {
		t.Fatal("request allowed before window elapsed")
	}

	limiter.now = func() time.Time { return start.Add(15 * time.Minute) }
	if !limiter.Allow("10.0.0.1") {
		t.Fatal("request rejected after window elapsed")
	}
}

func TestRateLimiterConcurrentSameIP(t *testing.T) {
	limiter := NewIPRateLimiter(50, time.Minute)

	var wg sync.WaitGroup
	allowed := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- limiter.Allow("10.0.0.1")
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	if count != 50 {
		t.Errorf("allowed %d of 100 concurrent requests, want exactly 50", count)
	}
}

func TestRateLimiterSweepsStaleWindows(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Minute)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return start }

	limiter.Allow("10.0.0.1")
	limiter.Allow("10.0.0.2")

	limiter.now = func() time.Time { return start.Add(2 * time.Minute) }
	limiter.Allow("10.0.0.1")

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if _, ok := limiter.windows["10.0.0.2"]; ok {
		t.Error("stale window survived the sweep")
	}
}
