package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/IvanBrykalov/sizecache/internal/singleflight"
	"github.com/IvanBrykalov/sizecache/internal/util"
)

var (
	// ErrNoLoader is returned by GetOrLoad when no Loader was configured in Options.
	ErrNoLoader = errors.New("cache: no Loader provided")
	// ErrClosed is returned by GetOrLoad after Close.
	ErrClosed = errors.New("cache: closed")
)

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Rejects   int64
}

func (s Stats) add(o Stats) Stats {
	return Stats{
		Hits:      s.Hits + o.Hits,
		Misses:    s.Misses + o.Misses,
		Evictions: s.Evictions + o.Evictions,
		Rejects:   s.Rejects + o.Rejects,
	}
}

// counters are bumped by countingMetrics; each sits on its own cache line.
type counters struct {
	_       util.CacheLinePad
	hits    util.PaddedAtomicInt64
	misses  util.PaddedAtomicInt64
	evicts  util.PaddedAtomicInt64
	rejects util.PaddedAtomicInt64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evicts.Load(),
		Rejects:   c.rejects.Load(),
	}
}

// countingMetrics tallies Stats and forwards every signal to the user's Metrics.
type countingMetrics struct {
	c    *counters
	next Metrics
}

func (m countingMetrics) Hit() {
	m.c.hits.Add(1)
	m.next.Hit()
}

func (m countingMetrics) Miss() {
	m.c.misses.Add(1)
	m.next.Miss()
}

func (m countingMetrics) Reject() {
	m.c.rejects.Add(1)
	m.next.Reject()
}

func (m countingMetrics) Evict(r EvictReason) {
	m.c.evicts.Add(1)
	m.next.Evict(r)
}

func (m countingMetrics) Size(entries int, units, maxSize int64) {
	m.next.Size(entries, units, maxSize)
}

// Synced guards one LRU with a mutex so the index and the recency list are
// always mutated as a unit. All methods are safe for concurrent use.
type Synced[K comparable, V any] struct {
	mu  sync.RWMutex
	lru *LRU[K, V]

	cnt    counters
	closed atomic.Bool

	loader func(ctx context.Context, k K) (V, error)
	sizer  func(v V) int64
	sf     singleflight.Group[K, V]
}

// NewSynced constructs a concurrency-safe LRU from Options.
func NewSynced[K comparable, V any](opt Options[K, V]) *Synced[K, V] {
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	s := &Synced[K, V]{loader: opt.Loader, sizer: opt.Sizer}
	opt.Metrics = countingMetrics{c: &s.cnt, next: opt.Metrics}
	s.lru = NewWithOptions(opt)
	return s
}

// Get returns the value for k and promotes it on hit.
// Promotion mutates the list, so Get takes the write lock.
func (s *Synced[K, V]) Get(k K) (V, bool) {
	if s.closed.Load() {
		var zero V
		return zero, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Get(k)
}

// Peek returns the value for k without changing recency.
func (s *Synced[K, V]) Peek(k K) (V, bool) {
	if s.closed.Load() {
		var zero V
		return zero, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lru.Peek(k)
}

// Contains reports whether k is resident.
func (s *Synced[K, V]) Contains(k K) bool {
	if s.closed.Load() {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lru.Contains(k)
}

// Put stores k→v with weight 1.
func (s *Synced[K, V]) Put(k K, v V) bool { return s.PutSized(k, v, 1) }

// PutSized inserts or updates k→v with the given weight.
func (s *Synced[K, V]) PutSized(k K, v V, size int64) bool {
	if s.closed.Load() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.PutSized(k, v, size)
}

// Remove deletes k if present.
func (s *Synced[K, V]) Remove(k K) bool {
	if s.closed.Load() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Remove(k)
}

// Size returns the occupied size units.
func (s *Synced[K, V]) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lru.Size()
}

// Len returns the number of resident entries.
func (s *Synced[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lru.Len()
}

// SetMaxSize changes the ceiling, evicting as needed.
func (s *Synced[K, V]) SetMaxSize(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.SetMaxSize(n)
}

// MaxSize returns the current ceiling.
func (s *Synced[K, V]) MaxSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lru.MaxSize()
}

// Keys returns resident keys from most to least recently used.
func (s *Synced[K, V]) Keys() []K {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lru.Keys()
}

// Purge evicts every entry.
func (s *Synced[K, V]) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Purge()
}

// Stats returns a snapshot of the counters.
func (s *Synced[K, V]) Stats() Stats { return s.cnt.snapshot() }

// Close marks the cache as closed. Future operations are ignored.
func (s *Synced[K, V]) Close() error {
	s.closed.Store(true)
	return nil
}

// GetOrLoad returns the value for k; on miss it loads via Options.Loader,
// coalescing concurrent loads for the same key, and stores the result with
// the weight computed by Options.Sizer. A value too heavy to fit is still
// returned, just not cached. Loader errors are returned and nothing is stored.
func (s *Synced[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	var zero V
	if s.closed.Load() {
		return zero, ErrClosed
	}
	if v, ok := s.Get(k); ok {
		return v, nil
	}
	if s.loader == nil {
		return zero, ErrNoLoader
	}

	v, err, _ := s.sf.Do(ctx, k, func() (V, error) {
		// double-check after flight join
		if v, ok := s.Peek(k); ok {
			return v, nil
		}
		v, err := s.loader(ctx, k)
		if err == nil {
			s.PutSized(k, v, s.weigh(v))
		}
		return v, err
	})
	return v, err
}

func (s *Synced[K, V]) weigh(v V) int64 {
	if s.sizer == nil {
		return 1
	}
	return s.sizer(v)
}

// Compile-time check: ensure Synced implements LoadingCache.
var _ LoadingCache[string, int] = (*Synced[string, int])(nil)
