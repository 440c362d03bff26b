package cache

import (
	"context"
	"log/slog"
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictCapacity: removed by Put to make room for an incoming entry.
	EvictCapacity EvictReason = iota
	// EvictShrink: removed because SetMaxSize lowered the ceiling.
	EvictShrink
	// EvictPurge: dropped by Purge.
	EvictPurge
)

// String returns a stable lowercase name, used as a metrics label.
func (r EvictReason) String() string {
	switch r {
	case EvictCapacity:
		return "capacity"
	case EvictShrink:
		return "shrink"
	case EvictPurge:
		return "purge"
	default:
		return "unknown"
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	// Reject is reported when PutSized refuses an entry that can never fit.
	Reject()
	Evict(reason EvictReason)
	// Size reports resident entries, occupied size units and the current ceiling.
	Size(entries int, units, maxSize int64)
}

// Options configures a cache. Zero values are safe;
// defaults are applied in NewWithOptions:
//   - nil Metrics => NoopMetrics
//   - nil Logger  => discard
//   - nil Sizer   => every loaded value weighs 1
type Options[K comparable, V any] struct {
	// MaxSize is the capacity ceiling in size units (not entries).
	// Negative values panic; zero is a valid, always-empty cache.
	MaxSize int64

	// Shards is only used by NewSharded. 0 picks ≈ 2*GOMAXPROCS,
	// rounded up to a power of two.
	Shards int

	// Loader fetches a value on a miss. Used by GetOrLoad.
	Loader func(ctx context.Context, k K) (V, error)
	// Sizer weighs values stored by GetOrLoad.
	Sizer func(v V) int64

	// OnEvict is called after an evicted node is fully unlinked.
	// It must not call back into the same cache.
	OnEvict func(k K, v V, reason EvictReason)
	Metrics Metrics

	// Logger receives invariant violations and debug traces.
	Logger *slog.Logger

	// Strict turns invariant violations into panics instead of error logs.
	// Tests should always set it.
	Strict bool
}
