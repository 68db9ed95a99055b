package cache

import (
	"context"
	"testing"
	"time"
)

func TestNew_DefaultsToMemory(t *testing.T) {
	c, err := New(Options{DefaultTTL: time.Minute})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = c.Close() }()

	if _, ok := c.(*MemoryCache); !ok {
		t.Errorf("New returned %T, want *MemoryCache", c)
	}

	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get = %q, want %q", got, "v")
	}
}

func TestNew_ZeroTTLFilled(t *testing.T) {
	c, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	// A zero per-entry TTL must fall back to a non-zero default, not
	// expire immediately.
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := c.Get(ctx, "k"); err != nil {
		t.Errorf("Get right after Set: %v", err)
	}
}

func TestNew_InvalidRedisURL(t *testing.T) {
	if _, err := New(Options{RedisURL: "not-a-url"}); err == nil {
		t.Error("New with invalid redis URL should fail")
	}
}
