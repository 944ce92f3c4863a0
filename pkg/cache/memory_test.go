package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type payload struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(WithMemoryMaxSize(8))
	defer c.Close()
	ctx := context.Background()

	in := payload{Name: "a", Items: []string{"x", "y"}}
	if err := c.Set(ctx, "k", in, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var out payload
	if err := c.Get(ctx, "k", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Name != "a" || len(out.Items) != 2 {
		t.Fatalf("round trip = %+v", out)
	}

	// Stored value is a copy: mutating what we read must not leak back.
	out.Items[0] = "mutated"
	var again payload
	if err := c.Get(ctx, "k", &again); err != nil {
		t.Fatalf("Get again: %v", err)
	}
	if again.Items[0] != "x" {
		t.Fatal("cached value shares memory with reader")
	}
}

func TestMemoryCacheMissAndExpiry(t *testing.T) {
	c := NewMemoryCache(WithMemoryMaxSize(8))
	defer c.Close()
	ctx := context.Background()

	var out payload
	if err := c.Get(ctx, "absent", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("err = %v, want ErrCacheMiss", err)
	}

	if err := c.Set(ctx, "short", payload{Name: "b"}, 10*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if err := c.Get(ctx, "short", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expired key err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheMGet(t *testing.T) {
	c := NewMemoryCache(WithMemoryMaxSize(8))
	defer c.Close()
	ctx := context.Background()

	if err := c.MSet(ctx, map[string]interface{}{
		"a": payload{Name: "a"},
		"b": payload{Name: "b"},
	}, time.Minute); err != nil {
		t.Fatalf("MSet: %v", err)
	}

	got, err := MGetTyped[payload](ctx, c, "a", "b", "missing")
	if err != nil {
		t.Fatalf("MGetTyped: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got["a"].Name != "a" || got["b"].Name != "b" {
		t.Fatalf("values = %+v", got)
	}
	if _, ok := got["missing"]; ok {
		t.Fatal("missing key should be absent, not zero-valued")
	}
}

func TestMemoryCacheTryLock(t *testing.T) {
	c := NewMemoryCache(WithMemoryMaxSize(8))
	defer c.Close()
	ctx := context.Background()

	ok, err := c.TryLock(ctx, "lock", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first TryLock = %v, %v", ok, err)
	}
	ok, err = c.TryLock(ctx, "lock", time.Minute)
	if err != nil || ok {
		t.Fatalf("second TryLock should fail, got %v, %v", ok, err)
	}
	if err := c.Unlock(ctx, "lock"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	ok, _ = c.TryLock(ctx, "lock", time.Minute)
	if !ok {
		t.Fatal("TryLock after Unlock should succeed")
	}
}
