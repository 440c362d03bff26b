package cache

import "context"

// Cache is a size-bounded key/value store with least-recently-used eviction.
//
// Capacity is measured in abstract size units, not entries. Put stores an
// entry of weight 1, so a cache fed only through Put is count-bounded.
//
// Typical complexity is amortized O(1): a map lookup plus constant-time
// list splices. Eviction costs O(1) per removed entry.
type Cache[K comparable, V any] interface {
	// Get returns the value for k and a presence flag.
	// On hit, the entry becomes the most recently used.
	Get(k K) (V, bool)

	// Peek is Get without touching recency.
	Peek(k K) (V, bool)

	// Contains reports whether k is resident. Recency is not touched.
	Contains(k K) bool

	// Put stores k→v with weight 1. See PutSized.
	Put(k K, v V) bool

	// PutSized inserts or updates k→v with the given weight and makes it the
	// most recently used entry, evicting from the LRU end until it fits.
	// An entry heavier than MaxSize (or with a negative weight) is rejected:
	// nothing changes, including any entry already stored under k, and
	// PutSized returns false.
	PutSized(k K, v V, size int64) bool

	// Remove deletes k if present and returns true on success.
	// It is not counted as an eviction.
	Remove(k K) bool

	// Size returns the occupied size units.
	Size() int64

	// Len returns the number of resident entries.
	Len() int

	// SetMaxSize changes the ceiling. Lowering it below Size evicts from the
	// LRU end until the cache fits; raising it never evicts.
	SetMaxSize(n int64)

	// MaxSize returns the current ceiling.
	MaxSize() int64
}

// LoadingCache is a concurrent Cache that can populate itself on a miss.
type LoadingCache[K comparable, V any] interface {
	Cache[K, V]

	// GetOrLoad returns the value for k, loading it via Options.Loader on miss.
	// Concurrent loads for the same key are coalesced (singleflight).
	// If no Loader was configured, returns ErrNoLoader.
	GetOrLoad(ctx context.Context, k K) (V, error)

	// Stats returns a snapshot of the hit/miss/eviction counters.
	Stats() Stats

	// Close marks the cache closed. Later reads miss and writes are dropped.
	Close() error
}
