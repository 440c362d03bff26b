package cache

import (
	"fmt"
	"io"
	"log/slog"
)

// LRU is the single-threaded size-bounded cache: a key→node index plus an
// intrusive recency list. It is not safe for concurrent use; wrap it with
// Synced or use Sharded when several goroutines share a cache.
//
// Invariants after every public call returns:
//   - 0 <= Size() <= MaxSize()
//   - a key is in the index iff its node is linked into the list
type LRU[K comparable, V any] struct {
	index   map[K]*node[K, V]
	list    recencyList[K, V]
	total   int64 // sum of node sizes
	maxSize int64

	opt Options[K, V]
	log *slog.Logger
}

// New constructs an LRU bounded by maxSize size units.
// It panics if maxSize is negative.
func New[K comparable, V any](maxSize int64) *LRU[K, V] {
	return NewWithOptions(Options[K, V]{MaxSize: maxSize})
}

// NewWithOptions constructs an LRU from Options.
// Defaults:
//   - nil Metrics -> NoopMetrics
//   - nil Logger  -> discard
func NewWithOptions[K comparable, V any](opt Options[K, V]) *LRU[K, V] {
	if opt.MaxSize < 0 {
		panic("cache: MaxSize must be >= 0")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	lg := opt.Logger
	if lg == nil {
		lg = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LRU[K, V]{
		index:   make(map[K]*node[K, V]),
		maxSize: opt.MaxSize,
		opt:     opt,
		log:     lg,
	}
}

// Get returns the value for k and promotes it to MRU on hit.
func (c *LRU[K, V]) Get(k K) (V, bool) {
	n, ok := c.index[k]
	if !ok {
		c.opt.Metrics.Miss()
		var zero V
		return zero, false
	}
	c.list.moveToFront(n)
	c.opt.Metrics.Hit()
	return n.val, true
}

// Peek returns the value for k without changing recency.
func (c *LRU[K, V]) Peek(k K) (V, bool) {
	if n, ok := c.index[k]; ok {
		return n.val, true
	}
	var zero V
	return zero, false
}

// Contains reports whether k is resident.
func (c *LRU[K, V]) Contains(k K) bool {
	_, ok := c.index[k]
	return ok
}

// Put stores k→v with weight 1.
func (c *LRU[K, V]) Put(k K, v V) bool { return c.PutSized(k, v, 1) }

// PutSized inserts or updates k→v with the given weight.
//
// The key's own node is never chosen as a victim while it is being updated:
// it is promoted before the eviction loop and skipped if it still ends up at
// the tail. Since size <= MaxSize, the loop always stops before the protected
// node would be the only candidate left.
func (c *LRU[K, V]) PutSized(k K, v V, size int64) bool {
	if size < 0 || size > c.maxSize {
		c.opt.Metrics.Reject()
		return false
	}

	if n, ok := c.index[k]; ok {
		c.list.moveToFront(n)
	}

	for {
		// Re-resolve after every eviction: OnEvict may have touched the index.
		var held int64
		n, ok := c.index[k]
		if ok {
			held = n.size
		}
		if c.total-held+size <= c.maxSize {
			break
		}
		c.evictTail(n, EvictCapacity)
	}

	if n, ok := c.index[k]; ok {
		c.total += size - n.size
		n.val = v
		n.size = size
		c.list.moveToFront(n)
	} else {
		n = &node[K, V]{key: k, val: v, size: size}
		c.list.pushFront(n)
		c.index[k] = n
		c.total += size
	}

	c.checkInvariants("PutSized")
	c.reportSize()
	return true
}

// Remove deletes k if present.
func (c *LRU[K, V]) Remove(k K) bool {
	n, ok := c.index[k]
	if !ok {
		return false
	}
	c.unlink(n)
	c.checkInvariants("Remove")
	c.reportSize()
	return true
}

// Size returns the occupied size units.
func (c *LRU[K, V]) Size() int64 { return c.total }

// Len returns the number of resident entries.
func (c *LRU[K, V]) Len() int { return c.list.len }

// MaxSize returns the current ceiling.
func (c *LRU[K, V]) MaxSize() int64 { return c.maxSize }

// SetMaxSize changes the ceiling, evicting LRU entries while Size exceeds it.
// It panics if n is negative.
func (c *LRU[K, V]) SetMaxSize(n int64) {
	if n < 0 {
		panic("cache: MaxSize must be >= 0")
	}
	c.maxSize = n
	evicted := 0
	for c.total > c.maxSize {
		c.evictTail(nil, EvictShrink)
		evicted++
	}
	if evicted > 0 {
		c.log.Debug("cache shrunk", "max_size", n, "evicted", evicted, "size", c.total)
	}
	c.checkInvariants("SetMaxSize")
	c.reportSize()
}

// Keys returns resident keys from most to least recently used.
func (c *LRU[K, V]) Keys() []K {
	out := make([]K, 0, c.list.len)
	for n := c.list.head; n != nil; n = n.next {
		out = append(out, n.key)
	}
	return out
}

// Oldest returns the LRU entry without touching recency.
func (c *LRU[K, V]) Oldest() (K, V, bool) {
	if n := c.list.back(); n != nil {
		return n.key, n.val, true
	}
	var (
		zk K
		zv V
	)
	return zk, zv, false
}

// Purge evicts every entry, LRU first.
func (c *LRU[K, V]) Purge() {
	for c.list.len > 0 {
		c.evictTail(nil, EvictPurge)
	}
	c.checkInvariants("Purge")
	c.reportSize()
}

// -------------------- internals --------------------

// evictTail removes the LRU node, skipping keep if it sits at the tail.
// Running out of candidates means Size and the list disagree, which is a
// bookkeeping bug, so it panics.
func (c *LRU[K, V]) evictTail(keep *node[K, V], reason EvictReason) {
	victim := c.list.back()
	if victim != nil && victim == keep {
		victim = victim.prev
	}
	if victim == nil {
		panic(fmt.Sprintf("cache: eviction from an empty list (size=%d max=%d reason=%s)",
			c.total, c.maxSize, reason))
	}
	c.unlink(victim)
	c.opt.Metrics.Evict(reason)
	if cb := c.opt.OnEvict; cb != nil {
		cb(victim.key, victim.val, reason)
	}
}

// unlink drops n from both the list and the index and releases its size.
func (c *LRU[K, V]) unlink(n *node[K, V]) {
	c.list.remove(n)
	delete(c.index, n.key)
	c.total -= n.size
}

// checkInvariants verifies the capacity and index/list bookkeeping.
// Violations panic in Strict mode and are logged otherwise.
func (c *LRU[K, V]) checkInvariants(op string) {
	var msg string
	switch {
	case c.total < 0:
		msg = "negative size"
	case c.total > c.maxSize:
		msg = "size exceeds max size"
	case len(c.index) != c.list.len:
		msg = "index and recency list disagree"
	default:
		return
	}
	if c.opt.Strict {
		panic(fmt.Sprintf("cache: %s after %s (size=%d max=%d entries=%d linked=%d)",
			msg, op, c.total, c.maxSize, len(c.index), c.list.len))
	}
	c.log.Error("cache invariant violated",
		"op", op, "violation", msg,
		"size", c.total, "max_size", c.maxSize,
		"entries", len(c.index), "linked", c.list.len)
}

func (c *LRU[K, V]) reportSize() {
	c.opt.Metrics.Size(c.list.len, c.total, c.maxSize)
}

// Compile-time check: ensure LRU implements Cache.
var _ Cache[string, int] = (*LRU[string, int])(nil)
