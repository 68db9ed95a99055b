package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type snapshot struct {
	PageID  string `json:"page_id"`
	Version int64  `json:"version"`
}

func TestTypedCache_SetGet(t *testing.T) {
	c := newTestCache(t)
	tc := NewTypedCache[snapshot](c, time.Minute)
	ctx := context.Background()

	want := &snapshot{PageID: "p1", Version: 3}
	if err := tc.Set(ctx, "pub:active:p1", want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := tc.Get(ctx, "pub:active:p1")
	if !ok {
		t.Fatal("Get: not found")
	}
	if got.PageID != "p1" || got.Version != 3 {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
}

func TestTypedCache_GetMiss(t *testing.T) {
	c := newTestCache(t)
	tc := NewTypedCache[snapshot](c, time.Minute)

	if _, ok := tc.Get(context.Background(), "missing"); ok {
		t.Error("Get(missing) = ok, want miss")
	}
}

func TestTypedCache_CorruptEntryDropped(t *testing.T) {
	c := newTestCache(t)
	tc := NewTypedCache[snapshot](c, time.Minute)
	ctx := context.Background()

	// Write garbage directly through the byte-level cache
	_ = c.Set(ctx, "bad", []byte("{not json"), 0)

	if _, ok := tc.Get(ctx, "bad"); ok {
		t.Fatal("Get on corrupt entry succeeded")
	}

	// The corrupt entry should have been evicted
	if _, err := c.Get(ctx, "bad"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("corrupt entry still present: %v", err)
	}
}

func TestTypedCache_GetOrSet(t *testing.T) {
	c := newTestCache(t)
	tc := NewTypedCache[snapshot](c, time.Minute)
	ctx := context.Background()

	calls := 0
	loader := func() (*snapshot, error) {
		calls++
		return &snapshot{PageID: "p2", Version: 1}, nil
	}

	got, err := tc.GetOrSet(ctx, "k", loader)
	if err != nil {
		t.Fatalf("GetOrSet: %v", err)
	}
	if got.PageID != "p2" {
		t.Errorf("PageID = %q, want %q", got.PageID, "p2")
	}

	// Second call must be served from cache
	if _, err := tc.GetOrSet(ctx, "k", loader); err != nil {
		t.Fatalf("GetOrSet: %v", err)
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
}

func TestTypedCache_GetOrSet_LoaderError(t *testing.T) {
	c := newTestCache(t)
	tc := NewTypedCache[snapshot](c, time.Minute)

	wantErr := errors.New("load failed")
	_, err := tc.GetOrSet(context.Background(), "k", func() (*snapshot, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("GetOrSet error = %v, want %v", err, wantErr)
	}
}

func TestTypedCache_Delete(t *testing.T) {
	c := newTestCache(t)
	tc := NewTypedCache[snapshot](c, time.Minute)
	ctx := context.Background()

	_ = tc.Set(ctx, "k", &snapshot{PageID: "p"})
	if err := tc.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if tc.Has(ctx, "k") {
		t.Error("Has after delete = true, want false")
	}
}
