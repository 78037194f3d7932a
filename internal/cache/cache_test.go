package cache

import (
	"testing"
	"time"
)

func TestGetSetWithinTTL(t *testing.T) {
	c := New(55 * time.Second)
	now := time.Now()
	c.now = func() time.Time { return now }

	if _, ok := c.Get("k"); ok {
		t.Fatal("empty cache should miss")
	}
	c.Set("k", 42)
	v, ok := c.Get("k")
	if !ok || v.(int) != 42 {
		t.Fatalf("got %v/%v", v, ok)
	}

	now = now.Add(54 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry evicted before TTL")
	}
}

func TestExpiryEvicts(t *testing.T) {
	c := New(55 * time.Second)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	now = now.Add(56 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry served")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry not removed, len=%d", c.Len())
	}
}

func TestSetRefreshesTTL(t *testing.T) {
	c := New(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", 1)
	now = now.Add(50 * time.Second)
	c.Set("k", 2)
	now = now.Add(50 * time.Second)
	v, ok := c.Get("k")
	if !ok || v.(int) != 2 {
		t.Fatalf("re-set entry should live a full TTL, got %v/%v", v, ok)
	}
}

func TestClear(t *testing.T) {
	c := New(time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()
	if _, ok := c.Get("a"); ok {
		t.Fatal("clear left entries behind")
	}
	if c.Len() != 0 {
		t.Fatalf("len = %d after clear", c.Len())
	}
}
