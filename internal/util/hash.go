// Package util contains internal helpers (hashing, sharding, padding).
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import (
	"fmt"
)

// Fnv64a hashes common key types using 64-bit FNV-1a.
// Supported: string, []byte, all int/uint widths, uintptr, fmt.Stringer.
// File-manager keys are paths or entry IDs, so string is the hot case.
// Panicking on unsupported types is deliberate to avoid silently poor hashing.
func Fnv64a[K comparable](k K) uint64 {
	switch v := any(k).(type) {
	case string:
		return fnv64aString(v)
	case uint8:
		return fnv64aFromUint64(uint64(v))
	case uint16:
		return fnv64aFromUint64(uint64(v))
	case uint32:
		return fnv64aFromUint64(uint64(v))
	case uint64:
		return fnv64aFromUint64(v)
	case uint:
		return fnv64aFromUint64(uint64(v))
	case uintptr:
		return fnv64aFromUint64(uint64(v))
	case int8:
		return fnv64aFromUint64(uint64(uint8(v)))
	case int16:
		return fnv64aFromUint64(uint64(uint16(v)))
	case int32:
		return fnv64aFromUint64(uint64(uint32(v)))
	case int64:
		return fnv64aFromUint64(uint64(v))
	case int:
		return fnv64aFromUint64(uint64(v))
	case fmt.Stringer:
		return fnv64aString(v.String())
	default:
		panic(fmt.Sprintf("util.Fnv64a: unsupported key type %T; convert key to string", k))
	}
}

const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

// fnv64aString walks the string bytes directly to avoid a []byte copy.
func fnv64aString(s string) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime64
	}
	return h
}

func fnv64aFromUint64(u uint64) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < 8; i++ {
		h ^= uint64(byte(u))
		h *= fnvPrime64
		u >>= 8
	}
	return h
}
