// Package singleflight coalesces concurrent cache loads for the same key.
package singleflight

import (
	"context"
	"fmt"
	"sync"
)

// Group coalesces concurrent function calls for the same key K so that
// the supplied fn is executed at most once per flight. Other concurrent
// callers wait for the shared result.
//
// Concurrency notes:
//   - The first caller for a given key becomes the leader and runs fn.
//   - Followers wait on c.done. Publishing (val, err) happens-before
//     close(c.done), so reads after <-done observe the final values.
//   - Cancelling ctx in a follower unblocks only that follower; it does
//     NOT cancel the leader's fn.
//   - A panic in fn is recovered, handed to every waiter as a *PanicError
//     and then re-raised in the leader.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*call[V]
}

type call[V any] struct {
	done chan struct{} // closed when val/err are published
	val  V
	err  error
	dups int
}

// PanicError is returned to followers when the leader's fn panicked.
type PanicError struct {
	Value any
}

func (p *PanicError) Error() string { return fmt.Sprintf("singleflight: load panicked: %v", p.Value) }

// Do runs fn once for the given key. Concurrent calls with the same key
// wait for the shared result. shared reports whether the result was handed
// to more than one caller.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (v V, err error, shared bool) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*call[V])
	}
	if c, ok := g.m[key]; ok {
		c.dups++
		done := c.done
		g.mu.Unlock()

		select {
		case <-done:
			return c.val, c.err, true
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err(), false
		}
	}

	c := &call[V]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	g.run(c, key, fn)

	g.mu.Lock()
	shared = c.dups > 0
	g.mu.Unlock()
	return c.val, c.err, shared
}

// Forget drops the in-flight marker for key, so the next Do starts a new
// flight instead of joining the current one.
func (g *Group[K, V]) Forget(key K) {
	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()
}

// run executes fn outside the lock and always wakes followers, even if fn panics.
func (g *Group[K, V]) run(c *call[V], key K, fn func() (V, error)) {
	var recovered any
	defer func() {
		g.mu.Lock()
		if g.m[key] == c {
			delete(g.m, key)
		}
		g.mu.Unlock()
		close(c.done)
		if recovered != nil {
			panic(recovered)
		}
	}()
	func() {
		defer func() {
			if r := recover(); r != nil {
				recovered = r
				c.err = &PanicError{Value: r}
			}
		}()
		c.val, c.err = fn()
	}()
}
