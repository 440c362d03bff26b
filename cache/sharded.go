package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/IvanBrykalov/sizecache/internal/util"
)

// Sharded splits the key space across independent Synced shards to cut lock
// contention. MaxSize is divided so the shard budgets sum to it exactly.
//
// Recency is tracked per shard: the evicted entry is the LRU of the shard
// the incoming key hashes to, not necessarily the global LRU. An entry must
// also fit its own shard's budget. Shards get floor(MaxSize/shards) units and
// the first MaxSize%shards of them one more, so floor(MaxSize/shards) is the
// heaviest weight accepted for every key; one unit more fits only on keys
// that hash to a larger shard.
type Sharded[K comparable, V any] struct {
	shards []*Synced[K, V]
	hash   func(K) uint64

	mu      sync.Mutex // serializes SetMaxSize
	maxSize int64
}

// NewSharded constructs a sharded cache.
// Defaults:
//   - Shards <= 0 -> auto (≈ 2*GOMAXPROCS), rounded up to the next power of two
func NewSharded[K comparable, V any](opt Options[K, V]) *Sharded[K, V] {
	if opt.MaxSize < 0 {
		panic("cache: MaxSize must be >= 0")
	}
	sh := util.ShardCount(opt.Shards)
	c := &Sharded[K, V]{
		shards:  make([]*Synced[K, V], sh),
		hash:    util.Fnv64a[K], // fast non-crypto hash for sharding
		maxSize: opt.MaxSize,
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	agg := &sizeTotals{shards: make([]shardSize, sh)}
	for i := range c.shards {
		so := opt
		so.Metrics = shardMetrics{Metrics: opt.Metrics, agg: agg, i: i}
		so.MaxSize = util.SplitBudget(opt.MaxSize, sh, i)
		if opt.Logger != nil {
			so.Logger = opt.Logger.With("shard", i)
		}
		c.shards[i] = NewSynced(so)
	}
	return c
}

// Get returns the value for k and promotes it within its shard.
func (c *Sharded[K, V]) Get(k K) (V, bool) { return c.shard(k).Get(k) }

// Peek returns the value for k without changing recency.
func (c *Sharded[K, V]) Peek(k K) (V, bool) { return c.shard(k).Peek(k) }

// Contains reports whether k is resident.
func (c *Sharded[K, V]) Contains(k K) bool { return c.shard(k).Contains(k) }

// Put stores k→v with weight 1.
func (c *Sharded[K, V]) Put(k K, v V) bool { return c.shard(k).PutSized(k, v, 1) }

// PutSized inserts or updates k→v in its shard.
func (c *Sharded[K, V]) PutSized(k K, v V, size int64) bool {
	return c.shard(k).PutSized(k, v, size)
}

// Remove deletes k if present.
func (c *Sharded[K, V]) Remove(k K) bool { return c.shard(k).Remove(k) }

// GetOrLoad loads through the owning shard; see Synced.GetOrLoad.
func (c *Sharded[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	return c.shard(k).GetOrLoad(ctx, k)
}

// Size returns the occupied size units across all shards.
func (c *Sharded[K, V]) Size() int64 {
	var total int64
	for _, s := range c.shards {
		total += s.Size()
	}
	return total
}

// Len returns the number of resident entries across all shards.
func (c *Sharded[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		total += s.Len()
	}
	return total
}

// SetMaxSize re-splits the ceiling across shards. Each shard evicts its own
// LRU entries until it fits its new budget.
func (c *Sharded[K, V]) SetMaxSize(n int64) {
	if n < 0 {
		panic("cache: MaxSize must be >= 0")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxSize = n
	for i, s := range c.shards {
		s.SetMaxSize(util.SplitBudget(n, len(c.shards), i))
	}
}

// MaxSize returns the total ceiling.
func (c *Sharded[K, V]) MaxSize() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxSize
}

// Purge empties every shard.
func (c *Sharded[K, V]) Purge() {
	for _, s := range c.shards {
		s.Purge()
	}
}

// Stats sums the counters of all shards.
func (c *Sharded[K, V]) Stats() Stats {
	var st Stats
	for _, s := range c.shards {
		st = st.add(s.Stats())
	}
	return st
}

// Shards returns the number of shards.
func (c *Sharded[K, V]) Shards() int { return len(c.shards) }

// Close closes every shard.
func (c *Sharded[K, V]) Close() error {
	for _, s := range c.shards {
		_ = s.Close()
	}
	return nil
}

// shard picks a shard by hashing the key; len(c.shards) is a power of two.
func (c *Sharded[K, V]) shard(k K) *Synced[K, V] {
	return c.shards[util.ShardIndex(c.hash(k), len(c.shards))]
}

// sizeTotals keeps cache-wide size gauges as running sums of per-shard
// reports, so Metrics.Size always sees whole-cache values.
type sizeTotals struct {
	entries, units, maxSize atomic.Int64
	shards                  []shardSize
}

// shardSize is the last report of one shard; written under that shard's lock.
type shardSize struct {
	entries, units, maxSize int64
}

// shardMetrics forwards everything but Size unchanged.
type shardMetrics struct {
	Metrics
	agg *sizeTotals
	i   int
}

func (m shardMetrics) Size(entries int, units, maxSize int64) {
	prev := &m.agg.shards[m.i]
	e := m.agg.entries.Add(int64(entries) - prev.entries)
	u := m.agg.units.Add(units - prev.units)
	mx := m.agg.maxSize.Add(maxSize - prev.maxSize)
	*prev = shardSize{entries: int64(entries), units: units, maxSize: maxSize}
	m.Metrics.Size(int(e), u, mx)
}

// Compile-time check: ensure Sharded implements LoadingCache.
var _ LoadingCache[string, int] = (*Sharded[string, int])(nil)
