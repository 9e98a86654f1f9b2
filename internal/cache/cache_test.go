package cache

import (
	"testing"
	"time"
)

func TestCacheInsertAndGet(t *testing.T) {
	c := New()
	c.Insert("k", 0.42, "weather_edge")
	v, ok := c.Get("k")
	if !ok || v != 0.42 {
		t.Fatalf("Get(k) = %v, %v; want 0.42, true", v, ok)
	}
}

func TestCacheTTLExpiration(t *testing.T) {
	c := New()
	c.Insert("arb", 0.5, "sum_to_one_arb")
	time.Sleep(600 * time.Millisecond)
	if _, ok := c.Get("arb"); ok {
		t.Fatal("expected arb key to have expired")
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after eviction", c.Len())
	}
}

func TestCacheDifferentTTLs(t *testing.T) {
	c := New()
	c.Insert("arb", 0.5, "sum_to_one_arb")
	c.Insert("weather", 0.6, "weather_edge")
	time.Sleep(600 * time.Millisecond)

	if _, ok := c.Get("arb"); ok {
		t.Fatal("expected arb key to have expired")
	}
	v, ok := c.Get("weather")
	if !ok || v != 0.6 {
		t.Fatalf("Get(weather) = %v, %v; want 0.6, true", v, ok)
	}
}
