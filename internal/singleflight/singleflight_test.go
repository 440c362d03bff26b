package singleflight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGroup_Coalesces(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	var calls atomic.Int32
	release := make(chan struct{})

	const n = 16
	var wg sync.WaitGroup
	var shared atomic.Int32
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			v, err, sh := g.Do(context.Background(), "k", func() (int, error) {
				calls.Add(1)
				<-release
				return 7, nil
			})
			if err != nil || v != 7 {
				t.Errorf("Do = %d, %v", v, err)
			}
			if sh {
				shared.Add(1)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond) // let followers join the flight
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("fn must run once, ran %d times", calls.Load())
	}
	if shared.Load() != n {
		t.Fatalf("every caller must see a shared result, got %d", shared.Load())
	}
}

// A cancelled follower returns ctx.Err() while the leader keeps running.
func TestGroup_FollowerCancel(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	started := make(chan struct{})
	release := make(chan struct{})
	leaderDone := make(chan int)

	go func() {
		v, _, _ := g.Do(context.Background(), "k", func() (int, error) {
			close(started)
			<-release
			return 1, nil
		})
		leaderDone <- v
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err, _ := g.Do(ctx, "k", func() (int, error) { return 2, nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("follower want context.Canceled, got %v", err)
	}

	close(release)
	if v := <-leaderDone; v != 1 {
		t.Fatalf("leader want 1, got %d", v)
	}
}

// A panicking fn must not strand followers.
func TestGroup_PanicWakesFollowers(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	started := make(chan struct{})
	release := make(chan struct{})
	followerErr := make(chan error)

	go func() {
		defer func() { _ = recover() }()
		g.Do(context.Background(), "k", func() (int, error) {
			close(started)
			<-release
			panic("bad load")
		})
	}()
	<-started

	go func() {
		_, err, _ := g.Do(context.Background(), "k", func() (int, error) { return 0, nil })
		followerErr <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case err := <-followerErr:
		var pe *PanicError
		if !errors.As(err, &pe) {
			// The follower may have started its own flight after the leader finished.
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("follower stuck after leader panic")
	}
}

func TestGroup_Forget(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	release := make(chan struct{})
	started := make(chan struct{})
	go g.Do(context.Background(), "k", func() (int, error) {
		close(started)
		<-release
		return 1, nil
	})
	<-started

	g.Forget("k")
	v, err, shared := g.Do(context.Background(), "k", func() (int, error) { return 2, nil })
	if err != nil || v != 2 || shared {
		t.Fatalf("after Forget a new flight must run: v=%d err=%v shared=%v", v, err, shared)
	}
	close(release)
}
