package cache

import (
	"context"
	"testing"
	"time"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be present")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %v %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUCache_TTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("k2", "v2")
	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected k to be expired")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestLRUCache_ZeroSizeStoresNothing(t *testing.T) {
	c := NewLRUCache[int](0, time.Minute)
	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Fatal("zero sized cache must not store")
	}
}

func TestLRUCache_DeletePrefixAndStats(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("u1:2025", 1)
	c.Set("u1:2024", 2)
	c.Set("u2:2025", 3)

	if n := c.DeletePrefix("u1:"); n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}
	c.Get("u2:2025")
	c.Get("u1:2025")
	c.Delete("u2:2025")

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Size != 0 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestManager_Sweep(t *testing.T) {
	now := time.Now()
	c := NewLRUCache[int](10, time.Second)
	c.now = func() time.Time { return now }
	c.Set("a", 1)
	now = now.Add(time.Hour)

	m := NewManager(nil)
	m.Register("test", c)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("expected 1 swept, got %d", n)
	}

	m.Start(context.Background(), 10*time.Millisecond)
	m.Stop()
	m.Stop()
}
