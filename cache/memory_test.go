package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestInMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(16, 3600)

	if err := c.Set(ctx, "key1", "value1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, ok := c.Get(ctx, "key1")
	if !ok {
		t.Error("Get should return true for existing key")
	}
	if val != "value1" {
		t.Errorf("Get returned %q, want %q", val, "value1")
	}

	val, ok = c.Get(ctx, "nonexistent")
	if ok {
		t.Error("Get should return false for missing key")
	}
	if val != "" {
		t.Errorf("Get should return empty string for missing key, got %q", val)
	}
}

func TestInMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(16, 1)

	c.Set(ctx, "key1", "value1")

	val, ok := c.Get(ctx, "key1")
	if !ok || val != "value1" {
		t.Error("Value should be available immediately after set")
	}

	time.Sleep(1100 * time.Millisecond)

	if _, ok := c.Get(ctx, "key1"); ok {
		t.Error("Value should be expired after TTL")
	}
}

func TestInMemoryCache_NoTTL(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(16, 0)

	c.Set(ctx, "key1", "value1")

	val, ok := c.Get(ctx, "key1")
	if !ok || val != "value1" {
		t.Error("Value should be available with no TTL")
	}
}

func TestInMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(2, 0)

	c.Set(ctx, "a", "1")
	c.Set(ctx, "b", "2")
	c.Get(ctx, "a") // a is now most recent
	c.Set(ctx, "c", "3")

	if _, ok := c.Get(ctx, "b"); ok {
		t.Error("Expected b to be evicted")
	}
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Error("Expected a to survive")
	}
	if c.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", c.Len())
	}
}

func TestInMemoryCache_Overwrite(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(16, 3600)

	c.Set(ctx, "key1", "value1")
	c.Set(ctx, "key1", "value2")

	val, ok := c.Get(ctx, "key1")
	if !ok {
		t.Error("Key should exist")
	}
	if val != "value2" {
		t.Errorf("Value should be overwritten, got %q, want %q", val, "value2")
	}
}

func TestInMemoryCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(16, 3600)

	c.Set(ctx, "key1", "value1")
	c.Set(ctx, "key2", "value2")
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Cleared cache should have length 0, got %d", c.Len())
	}
}

func TestInMemoryCache_Entries(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(16, 3600)

	c.Set(ctx, "key1", "value1")
	c.Set(ctx, "key2", "value2")

	entries, err := c.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 2 || entries["key2"] != "value2" {
		t.Errorf("Unexpected entries: %v", entries)
	}
}

func TestInMemoryCache_Concurrent(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(0, 3600)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.Set(ctx, fmt.Sprintf("k%d", i%26), "value")
		}(i)
		go func(i int) {
			defer wg.Done()
			c.Get(ctx, fmt.Sprintf("k%d", i%26))
		}(i)
	}

	wg.Wait()
}

var _ TranslationCache = (*InMemoryCache)(nil)
