//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tourbase/tourbase/internal/testutil"
)

func newCacheTestEnv(t *testing.T) (context.Context, *Cache) {
	t.Helper()

	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	return ctx, c
}

func TestIntegrationRateLimit_BurstThenDeny(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	userID := fmt.Sprintf("rl-burst-%d", time.Now().UnixNano())
	const burst = 5

	// Low refill rate keeps the bucket empty once the burst is spent.
	for i := 0; i < burst; i++ {
		result, err := c.CheckUserRateLimit(ctx, userID, 1, burst)
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if !result.Allowed {
			t.Fatalf("request %d within burst was denied", i)
		}
	}

	result, err := c.CheckUserRateLimit(ctx, userID, 1, burst)
	if err != nil {
		t.Fatalf("check after burst: %v", err)
	}
	if result.Allowed {
		t.Fatalf("request after burst was allowed")
	}
	if result.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", result.Remaining)
	}
	if result.RetryAfter <= 0 {
		t.Errorf("retry after = %v, want > 0", result.RetryAfter)
	}
}

func TestIntegrationRateLimit_SubjectsIsolated(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	first := fmt.Sprintf("rl-iso-a-%d", time.Now().UnixNano())
	second := fmt.Sprintf("rl-iso-b-%d", time.Now().UnixNano())
	const burst = 2

	for i := 0; i < burst+1; i++ {
		_, err := c.CheckUserRateLimit(ctx, first, 1, burst)
		if err != nil {
			t.Fatalf("exhaust first subject: %v", err)
		}
	}

	result, err := c.CheckUserRateLimit(ctx, second, 1, burst)
	if err != nil {
		t.Fatalf("check second subject: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("second subject was throttled by first subject's bucket")
	}
}

func TestIntegrationRateLimit_IPBucket(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	// The bucket key is a hash of this string, so a unique suffix keeps
	// runs from sharing state.
	ip := fmt.Sprintf("203.0.113.7-%d", time.Now().UnixNano())
	const burst = 3

	for i := 0; i < burst; i++ {
		result, err := c.CheckIPRateLimit(ctx, ip, 1, burst)
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if !result.Allowed {
			t.Fatalf("request %d within burst was denied", i)
		}
	}

	result, err := c.CheckIPRateLimit(ctx, ip, 1, burst)
	if err != nil {
		t.Fatalf("check after burst: %v", err)
	}
	if result.Allowed {
		t.Fatalf("request after burst was allowed")
	}
}
