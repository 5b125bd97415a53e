package httpx

import (
	"sync"
	"testing"
	"time"

	"github.com/DhruvilJayani/coursecompass/pkg/logger"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryRateLimiterWindow(t *testing.T) {
	clock := &stepClock{now: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)}
	rl := newMemoryRateLimiter(clock.Now, time.Hour)
	defer rl.Close()

	for i := 1; i <= 3; i++ {
		d := rl.Allow("ip:1", 3, time.Minute)
		if !d.allowed || d.count != i {
			t.Fatalf("request %d: unexpected decision %+v", i, d)
		}
	}
	if d := rl.Allow("ip:1", 3, time.Minute); d.allowed {
		t.Fatalf("expected fourth request to be limited")
	}
	if d := rl.Allow("ip:2", 3, time.Minute); !d.allowed {
		t.Fatalf("keys must be counted independently")
	}

	clock.Advance(time.Minute)
	if d := rl.Allow("ip:1", 3, time.Minute); !d.allowed || d.count != 1 {
		t.Fatalf("expected new window, got %+v", d)
	}
}

func TestMemoryRateLimiterCleanup(t *testing.T) {
	clock := &stepClock{now: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)}
	rl := newMemoryRateLimiter(clock.Now, time.Hour)
	defer rl.Close()

	rl.Allow("ip:1", 3, time.Minute)
	rl.Allow("ip:2", 3, 2*time.Minute)
	clock.Advance(90 * time.Second)
	rl.cleanup(clock.Now())
	if got := rl.size(); got != 1 {
		t.Fatalf("expected one live entry, got %d", got)
	}
}

func TestMemoryRateLimiterUnlimited(t *testing.T) {
	rl := newMemoryRateLimiter(time.Now, time.Hour)
	defer rl.Close()
	if d := rl.Allow("ip:1", 0, time.Minute); !d.allowed {
		t.Fatalf("non-positive limit disables limiting")
	}
}

func TestMemoryRateLimiterCloseIsIdempotent(t *testing.T) {
	rl := newMemoryRateLimiter(time.Now, time.Millisecond)
	rl.Close()
	rl.Close()
}

func TestNewRedisRateLimiterUnreachable(t *testing.T) {
	if _, err := NewRedisRateLimiter("127.0.0.1:1", "", 0, logger.Discard()); err == nil {
		t.Fatalf("expected error for unreachable redis")
	}
}
