package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterBurstThenRefill(t *testing.T) {
	now := time.Unix(1000, 0)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 2}

	for i := 0; i < 2; i++ {
		if ok, _ := limiter.Allow("7|PROCESS", rule); !ok {
			t.Fatalf("burst request %d denied", i)
		}
	}

	ok, retryAfter := limiter.Allow("7|PROCESS", rule)
	if ok {
		t.Fatalf("expected denial after burst")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %v", retryAfter)
	}

	// A different principal has its own bucket.
	if ok, _ := limiter.Allow("9|PROCESS", rule); !ok {
		t.Fatalf("other principal should not share the bucket")
	}

	now = now.Add(2 * time.Second)
	if ok, _ := limiter.Allow("7|PROCESS", rule); !ok {
		t.Fatalf("expected refill after waiting")
	}
}

func TestRateLimiterZeroRuleAllows(t *testing.T) {
	limiter := NewRateLimiter(nil)
	if ok, _ := limiter.Allow("7|X", RateLimitRule{}); !ok {
		t.Fatalf("zero rule should allow")
	}
}
