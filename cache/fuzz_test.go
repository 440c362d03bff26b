package cache

import (
	"strings"
	"testing"
)

// Fuzz PutSized/Get/Remove semantics under arbitrary keys and weights.
// Guards against panics and ensures core invariants hold.
// NOTE: We cap key length to avoid pathological memory usage during fuzzing.
func FuzzLRU_PutGetRemove(f *testing.F) {
	f.Add("", int64(1), int64(1))
	f.Add("a", int64(3), int64(10))
	f.Add("αβγ", int64(0), int64(0))
	f.Add("emoji🙂", int64(11), int64(10))
	f.Add(strings.Repeat("x", 1024), int64(-1), int64(5))

	f.Fuzz(func(t *testing.T, k string, size, maxSize int64) {
		const limit = 1 << 12 // 4096
		if len(k) > limit {
			k = k[:limit]
		}
		if k == "other" {
			k += "!"
		}
		if maxSize < 0 {
			maxSize = -maxSize
		}
		if maxSize < 0 { // MinInt64
			maxSize = 0
		}

		c := NewWithOptions(Options[string, string]{MaxSize: maxSize, Strict: true})
		c.PutSized("other", "o", 0)

		stored := c.PutSized(k, "v", size)
		if want := size >= 0 && size <= maxSize; stored != want {
			t.Fatalf("PutSized(size=%d, max=%d) = %v, want %v", size, maxSize, stored, want)
		}
		got, ok := c.Get(k)
		if stored && (!ok || got != "v") {
			t.Fatalf("after PutSized/Get: got %q ok=%v", got, ok)
		}
		if c.Size() < 0 || c.Size() > c.MaxSize() {
			t.Fatalf("Size %d outside [0,%d]", c.Size(), c.MaxSize())
		}

		if c.Remove(k) != stored {
			t.Fatalf("Remove must mirror whether the key was stored")
		}
		if c.Contains(k) {
			t.Fatalf("key must be absent after Remove")
		}

		c.SetMaxSize(0)
		if c.Size() != 0 {
			t.Fatalf("SetMaxSize(0) left Size=%d", c.Size())
		}
	})
}
