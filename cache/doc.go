// Package cache provides a generic, size-bounded, least-recently-used cache
// for derived data such as file metadata and thumbnails.
//
// Design
//
//   - Capacity: the ceiling (MaxSize) is measured in abstract size units.
//     Every entry carries a weight; Put uses weight 1, so a cache fed only
//     through Put is count-bounded. PutSized takes an explicit weight.
//
//   - Storage: a map[K]*node for lookups and an intrusive MRU↔LRU doubly
//     linked list for ordering. All operations are O(1) expected; eviction
//     costs O(1) per removed entry.
//
//   - Eviction: always the tail of the recency list. An entry heavier than
//     MaxSize is rejected outright and leaves the cache untouched. A key being
//     updated is never evicted to make room for its own new value.
//
//   - Shrinking: SetMaxSize below the current Size evicts from the LRU end
//     until the cache fits. Raising the ceiling never evicts.
//
//   - Concurrency: LRU is single-threaded. Synced puts one LRU behind a
//     mutex; Sharded spreads keys across several Synced shards.
//
//   - GetOrLoad: Synced and Sharded coalesce concurrent loads for the same key
//     using singleflight. If Loader is nil, GetOrLoad returns ErrNoLoader.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Reject/Evict/Size signals.
//     By default NoopMetrics is used; plug the metrics/prom adapter to export
//     them to Prometheus.
//
//   - Invariants: after every mutation the cache checks 0 <= Size <= MaxSize
//     and that the index matches the list. Options.Strict makes a violation
//     panic; otherwise it is logged through Options.Logger. Evicting from an
//     empty list always panics.
//
// Basic usage
//
//	c := cache.New[string, []byte](3)
//	c.Put("a", []byte("1"))
//	c.Put("b", []byte("2"))
//	c.Put("c", []byte("3"))
//	c.Put("d", []byte("4")) // evicts "a"
//
// Weighted entries
//
//	c := cache.New[string, []byte](1 << 20) // 1 MiB of thumbnails
//	c.PutSized(path, thumb, int64(len(thumb)))
//
// Concurrent use with a loader
//
//	c := cache.NewSynced(cache.Options[string, Meta]{
//	    MaxSize: 10_000,
//	    Loader: func(ctx context.Context, path string) (Meta, error) {
//	        return statFile(path)
//	    },
//	})
//	m, err := c.GetOrLoad(ctx, "/home/user/Downloads")
package cache
