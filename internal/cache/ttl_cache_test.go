package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func newTestCache(maxSize int, ttl time.Duration) (*TTLCache[string, int], *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewTTLCache[string, int](maxSize, ttl)
	c.now = clock.Now
	return c, clock
}

func TestTTLCacheSetGet(t *testing.T) {
	c, _ := newTestCache(2, time.Second)
	c.Set("a", 1)

	value, ok := c.Get("a")
	if !ok || value != 1 {
		t.Fatalf("expected 1, got %d ok=%v", value, ok)
	}
}

func TestTTLCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Second)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected key 'b' to be evicted")
	}
	if value, ok := c.Get("a"); !ok || value != 1 {
		t.Fatalf("expected key 'a' to remain")
	}
	if c.Len() != 2 {
		t.Fatalf("unexpected len: %d", c.Len())
	}
}

func TestTTLCacheExpires(t *testing.T) {
	c, clock := newTestCache(2, time.Minute)
	c.Set("a", 1)
	clock.now = clock.now.Add(2 * time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected key 'a' to expire")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry must be removed on access")
	}
}

func TestTTLCacheModifyCountsWithinWindow(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	inc := func(current int, _ bool) int { return current + 1 }

	for want := 1; want <= 3; want++ {
		got, ok := c.Modify("k", inc)
		if !ok || got != want {
			t.Fatalf("Modify = %d ok=%v, want %d", got, ok, want)
		}
		clock.now = clock.now.Add(15 * time.Second)
	}

	// 첫 기록 후 1분이 지나면 윈도우가 새로 시작된다.
	clock.now = clock.now.Add(15 * time.Second)
	got, _ := c.Modify("k", inc)
	if got != 1 {
		t.Fatalf("expected counter reset after ttl, got %d", got)
	}
}

func TestTTLCacheModifyReportsExistence(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	var seen []bool
	record := func(current int, exists bool) int {
		seen = append(seen, exists)
		return current + 10
	}
	c.Modify("k", record)
	c.Modify("k", record)

	if len(seen) != 2 || seen[0] || !seen[1] {
		t.Fatalf("unexpected existence flags: %v", seen)
	}
	if _, ok := c.Modify("k", nil); ok {
		t.Fatalf("nil modifier must be rejected")
	}
}
