// Package plancache memoizes translated query plans. SQL-to-plan lowering
// is pure and deterministic (spec §5), so the same SQL text and field-type
// map always produce the same plan.QueryPlan; a repeatedly-issued query
// template never needs to pay for re-parsing and re-lowering.
//
// The primary backend follows the teacher's own client.go convention of
// wrapping a *redis.Client with an explicit context; Local is an
// in-process fallback for callers with no shared cache.
package plancache

import (
	"container/list"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omniql-engine/sql2mongo/engine/plan"
)

// Cache stores and retrieves lowered plans keyed by an opaque cache key
// (see Key). Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (*plan.QueryPlan, bool)
	Set(ctx context.Context, key string, p *plan.QueryPlan)
}

// Key builds a cache key from the raw SQL text and the collection's type
// map fingerprint. Two identical SQL strings lowered against different
// field-type maps are different plans and must not collide.
func Key(sql, typeFingerprint string) string {
	return sql + "\x00" + typeFingerprint
}

// Redis is a Cache backed by a Redis hash-free string store, grounded on
// the teacher's WrapRedis client wrapping.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis wraps an existing *redis.Client. A zero ttl means entries never
// expire.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, prefix: "sql2mongo:plan:"}
}

func (r *Redis) Get(ctx context.Context, key string) (*plan.QueryPlan, bool) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var p plan.QueryPlan
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (r *Redis) Set(ctx context.Context, key string, p *plan.QueryPlan) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	r.client.Set(ctx, r.prefix+key, raw, r.ttl)
}

// Local is an in-process, fixed-capacity LRU cache for callers with no
// shared Redis deployment.
type Local struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

type localEntry struct {
	key  string
	plan *plan.QueryPlan
}

// NewLocal builds a Local cache holding at most capacity entries, evicting
// the least recently used entry once full.
func NewLocal(capacity int) *Local {
	if capacity <= 0 {
		capacity = 128
	}
	return &Local{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

func (c *Local) Get(_ context.Context, key string) (*plan.QueryPlan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*localEntry).plan, true
}

func (c *Local) Set(_ context.Context, key string, p *plan.QueryPlan) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*localEntry).plan = p
		return
	}

	el := c.ll.PushFront(&localEntry{key: key, plan: p})
	c.items[key] = el

	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*localEntry).key)
		}
	}
}
