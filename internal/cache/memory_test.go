package cache_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/dropDatabas3/cadenza/internal/cache"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory("")

	if _, err := c.Get(ctx, "missing"); !cache.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := c.Set(ctx, "k", "v", 0); err != nil {
		t.Fatal(err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if got != "v" {
		t.Fatalf("expected v, got %q", got)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "k"); !cache.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Delete es idempotente.
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory("")

	if err := c.Set(ctx, "short", "v", 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "short"); err != nil {
		t.Fatalf("fresh key must exist: %v", err)
	}

	time.Sleep(40 * time.Millisecond)
	if _, err := c.Get(ctx, "short"); !cache.IsNotFound(err) {
		t.Fatalf("expired key must be gone, got %v", err)
	}
}

func TestMemory_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory("")

	if err := c.Set(ctx, "forever", "v", 0); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := c.Get(ctx, "forever"); err != nil {
		t.Fatalf("ttl 0 must not expire: %v", err)
	}
}

func TestMemory_Scan(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory("")

	for _, k := range []string{"access-token:a", "access-token:b", "refresh-token:c"} {
		if err := c.Set(ctx, k, "v", 0); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := c.Scan(ctx, "access-token:")
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "access-token:a" || keys[1] != "access-token:b" {
		t.Fatalf("unexpected scan result: %v", keys)
	}

	keys, err = c.Scan(ctx, "authorization-code:")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected empty scan, got %v", keys)
	}
}

func TestMemory_PrefixIsTransparent(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory("cadenza")

	if err := c.Set(ctx, "access-token:a", "v", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "access-token:a"); err != nil {
		t.Fatalf("keys must be readable without the prefix: %v", err)
	}

	keys, err := c.Scan(ctx, "access-token:")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "access-token:a" {
		t.Fatalf("scan must strip the prefix: %v", keys)
	}
}
