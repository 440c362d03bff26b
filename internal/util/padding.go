package util

import (
	"sync/atomic"
	"unsafe"
)

// CacheLineSize is a reasonable default for most modern CPUs.
const CacheLineSize = 64

// CacheLinePad separates groups of hot fields into distinct cache lines.
type CacheLinePad struct{ _ [CacheLineSize]byte }

// PaddedAtomicInt64 is an atomic int64 padded to exactly one cache line,
// so per-cache hit/miss counters bumped from many goroutines don't share lines.
type PaddedAtomicInt64 struct {
	atomic.Int64
	_ [CacheLineSize - 8]byte
}

// Compile-time size check (must be exactly one cache line).
var _ [CacheLineSize - int(unsafe.Sizeof(PaddedAtomicInt64{}))]byte
