package plancache

import (
	"context"
	"testing"

	"github.com/omniql-engine/sql2mongo/engine/plan"
)

func TestKeyDistinguishesTypeFingerprint(t *testing.T) {
	a := Key("SELECT * FROM users", "fp1")
	b := Key("SELECT * FROM users", "fp2")
	if a == b {
		t.Error("Key should differ when the type fingerprint differs")
	}
}

func TestLocalGetSetRoundTrip(t *testing.T) {
	c := NewLocal(2)
	ctx := context.Background()
	p := &plan.QueryPlan{Collection: "users", Op: plan.Find}
	c.Set(ctx, "k1", p)

	got, ok := c.Get(ctx, "k1")
	if !ok || got.Collection != "users" {
		t.Fatalf("Get(k1) = (%#v, %v)", got, ok)
	}
}

func TestLocalMissReturnsFalse(t *testing.T) {
	c := NewLocal(2)
	if _, ok := c.Get(context.Background(), "missing"); ok {
		t.Error("expected a miss for an unset key")
	}
}

func TestLocalEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLocal(2)
	ctx := context.Background()
	c.Set(ctx, "a", &plan.QueryPlan{Collection: "a"})
	c.Set(ctx, "b", &plan.QueryPlan{Collection: "b"})

	// Touch "a" so "b" becomes the least recently used entry.
	c.Get(ctx, "a")
	c.Set(ctx, "c", &plan.QueryPlan{Collection: "c"})

	if _, ok := c.Get(ctx, "b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Error("expected a to survive eviction")
	}
	if _, ok := c.Get(ctx, "c"); !ok {
		t.Error("expected c to be present")
	}
}

func TestLocalDefaultsCapacityWhenNonPositive(t *testing.T) {
	c := NewLocal(0)
	if c.capacity != 128 {
		t.Errorf("capacity = %d, want 128", c.capacity)
	}
}

func TestLocalSetOverwritesExistingKey(t *testing.T) {
	c := NewLocal(2)
	ctx := context.Background()
	c.Set(ctx, "k", &plan.QueryPlan{Collection: "old"})
	c.Set(ctx, "k", &plan.QueryPlan{Collection: "new"})

	got, ok := c.Get(ctx, "k")
	if !ok || got.Collection != "new" {
		t.Fatalf("Get(k) = (%#v, %v)", got, ok)
	}
}
