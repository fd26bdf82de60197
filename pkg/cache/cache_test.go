package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New[[]string](time.Second)
	c.Set("view:1", []string{"Ana"})
	val, ok := c.Get("view:1")
	if !ok || len(val) != 1 || val[0] != "Ana" {
		t.Fatalf("expected cached view, got %v, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	c := New[string](time.Minute)
	now := time.Date(2025, 7, 6, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("key1", "value1")
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("key1"); ok {
		t.Fatalf("expected expired key to return false")
	}
}

func TestDisabledCache(t *testing.T) {
	c := New[string](0)
	c.Set("key1", "value1")
	if _, ok := c.Get("key1"); ok {
		t.Fatalf("expected disabled cache to store nothing")
	}
}

func TestInvalidate(t *testing.T) {
	c := New[string](time.Second)
	c.Set("view:1:a", "a")
	c.Set("view:1:b", "b")
	c.Set("options:1", "o")
	c.Invalidate("view:")
	_, ok1 := c.Get("view:1:a")
	_, ok2 := c.Get("view:1:b")
	_, ok3 := c.Get("options:1")
	if ok1 || ok2 {
		t.Fatalf("expected view keys to be invalidated")
	}
	if !ok3 {
		t.Fatalf("expected options:1 to still exist")
	}

	c.Invalidate("")
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Len())
	}
}
