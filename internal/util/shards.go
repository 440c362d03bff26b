package util

import "runtime"

// ShardCount resolves a requested shard count: n <= 0 picks
// nextPow2(2*GOMAXPROCS); anything else is rounded up to a power of two.
// The result is clamped to [1..256].
func ShardCount(n int) int {
	if n <= 0 {
		p := runtime.GOMAXPROCS(0)
		if p < 1 {
			p = 1
		}
		n = 2 * p
	}
	n = int(NextPow2(uint64(n)))
	if n > 256 {
		n = 256
	}
	return n
}

// ShardIndex maps a 64-bit hash to a shard index.
// shards must be a power of two.
func ShardIndex(hash uint64, shards int) int {
	if shards <= 1 {
		return 0
	}
	return int(hash & uint64(shards-1))
}

// SplitBudget divides total size units across shards so the parts sum to
// total exactly; the first total%shards shards get one extra unit.
func SplitBudget(total int64, shards, i int) int64 {
	base := total / int64(shards)
	if int64(i) < total%int64(shards) {
		base++
	}
	return base
}
