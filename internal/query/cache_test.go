package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func fastOptions() Options {
	return Options{
		TTL:         time.Minute,
		MaxRetries:  3,
		BackoffBase: time.Millisecond,
		BackoffMax:  5 * time.Millisecond,
	}
}

func TestGet_ResolvesAndCaches(t *testing.T) {
	store := NewStore(fastOptions())
	var calls int32

	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "payload", nil
	}

	for i := 0; i < 3; i++ {
		snap, err := store.Get(context.Background(), "k", fetch)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap.Status != StatusResolved || snap.Data != "payload" {
			t.Fatalf("unexpected snapshot: %+v", snap)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected 1 fetch within the freshness window, got %d", n)
	}
}

func TestGet_DeduplicatesConcurrentCallers(t *testing.T) {
	store := NewStore(fastOptions())
	var calls int32

	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return 42, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := store.Get(context.Background(), "k", fetch)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if snap.Status != StatusResolved || snap.Data != 42 {
				t.Errorf("unexpected snapshot: %+v", snap)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected exactly 1 underlying fetch, got %d", n)
	}
}

func TestGet_RetriesTransientFailure(t *testing.T) {
	store := NewStore(fastOptions())
	var calls int32

	fetch := func(ctx context.Context) (any, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return nil, errors.New("transient")
		}
		return "ok", nil
	}

	snap, err := store.Get(context.Background(), "k", fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Status != StatusResolved {
		t.Fatalf("expected resolved after transient failures, got %s (%v)", snap.Status, snap.Err)
	}
	if snap.Data != "ok" {
		t.Fatalf("expected successful payload, got %v", snap.Data)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
}

func TestGet_FailsAfterRetriesExhausted(t *testing.T) {
	opts := fastOptions()
	opts.MaxRetries = 2
	store := NewStore(opts)

	var calls int32
	wantErr := errors.New("down")
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, wantErr
	}

	snap, err := store.Get(context.Background(), "k", fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Status != StatusFailed || !errors.Is(snap.Err, wantErr) {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("expected 1 initial + 2 retries, got %d attempts", n)
	}
}

func TestGet_RefetchesAfterExpiry(t *testing.T) {
	opts := fastOptions()
	opts.TTL = 20 * time.Millisecond
	store := NewStore(opts)

	var calls int32
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "fresh", nil
	}

	if _, err := store.Get(context.Background(), "k", fetch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := store.Get(context.Background(), "k", fetch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected a refetch after staleness expiry, got %d fetches", n)
	}
}

func TestPeek_UnknownKeyIsIdle(t *testing.T) {
	store := NewStore(fastOptions())
	snap := store.Peek("never-fetched")
	if snap.Status != StatusIdle || snap.Data != nil || snap.Err != nil {
		t.Fatalf("expected idle zero snapshot, got %+v", snap)
	}
}

func TestSubscribe_ObservesTransitions(t *testing.T) {
	store := NewStore(fastOptions())
	ch := store.Subscribe("k")

	if _, err := store.Get(context.Background(), "k", func(ctx context.Context) (any, error) {
		return "done", nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var seen []Status
	for i := 0; i < 2; i++ {
		select {
		case snap := <-ch:
			seen = append(seen, snap.Status)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for notification %d, saw %v", i, seen)
		}
	}
	if seen[0] != StatusPending || seen[1] != StatusResolved {
		t.Fatalf("expected pending then resolved, got %v", seen)
	}

	store.Unsubscribe("k", ch)
}

func TestPrune_EvictsExpiredOnly(t *testing.T) {
	opts := fastOptions()
	opts.TTL = 20 * time.Millisecond
	store := NewStore(opts)

	fetch := func(ctx context.Context) (any, error) { return "v", nil }
	if _, err := store.Get(context.Background(), "old", fetch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := store.Get(context.Background(), "new", fetch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := store.Prune(); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if store.Peek("old").Status != StatusIdle {
		t.Fatalf("expected evicted key to read idle")
	}
	if store.Peek("new").Status != StatusResolved {
		t.Fatalf("fresh key must survive pruning")
	}
}

func TestGet_WaiterHonorsContext(t *testing.T) {
	store := NewStore(fastOptions())

	release := make(chan struct{})
	go store.Get(context.Background(), "k", func(ctx context.Context) (any, error) {
		<-release
		return "late", nil
	})
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := store.Get(ctx, "k", func(ctx context.Context) (any, error) {
		t.Error("waiter must not start a second fetch")
		return nil, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}
	close(release)
}
