package inmemory

import (
	"testing"
	"time"
)

func TestTTLCacheExpires(t *testing.T) {
	cache := NewTTLCache[string]()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Set("token", "user-1", time.Minute)
	if value, ok := cache.Get("token"); !ok || value != "user-1" {
		t.Fatalf("expected cached value, got %q %v", value, ok)
	}

	now = now.Add(time.Minute)
	if _, ok := cache.Get("token"); ok {
		t.Fatal("expected value to expire")
	}
	if len(cache.items) != 0 {
		t.Fatalf("expected expired item to be dropped, got %d", len(cache.items))
	}
}

func TestTTLCacheNonPositiveTTLDeletes(t *testing.T) {
	cache := NewTTLCache[int]()
	cache.Set("a", 1, time.Minute)
	cache.Set("a", 2, 0)
	if _, ok := cache.Get("a"); ok {
		t.Fatal("expected zero ttl to delete")
	}
}
