// Package query implements a keyed, time-to-live cache for expensive fetches.
// Each key moves through idle -> pending -> resolved/failed; concurrent
// callers for one key share a single in-flight fetch, and failed fetches are
// retried with exponential backoff before the failure is surfaced.
package query

import (
	"context"
	"log"
	"math"
	"sync"
	"time"
)

// Status is the lifecycle state of a query key.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusResolved
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusResolved:
		return "resolved"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is the observable state of one key: the {isLoading, error, data}
// triple plus the time the terminal state was reached.
type Snapshot struct {
	Status    Status
	Data      any
	Err       error
	FetchedAt time.Time
}

// IsLoading reports whether a fetch for the key is in flight.
func (s Snapshot) IsLoading() bool {
	return s.Status == StatusPending
}

// FetchFunc produces the value for a key. It is invoked at most once per
// in-flight fetch regardless of how many callers wait on the key.
type FetchFunc func(ctx context.Context) (any, error)

// Options control freshness and the retry envelope. Zero fields get the
// product-policy defaults.
type Options struct {
	TTL         time.Duration // freshness window, default 10 minutes
	MaxRetries  int           // retries after the initial attempt, default 3
	BackoffBase time.Duration // first retry delay, default 1s, doubling
	BackoffMax  time.Duration // delay cap, default 30s
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = 10 * time.Minute
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = time.Second
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 30 * time.Second
	}
	return o
}

type entry struct {
	snap Snapshot
	done chan struct{} // non-nil while a fetch is in flight
}

// Store is a concurrency-safe keyed cache. It owns no fetch logic beyond the
// retry envelope; callers pass the FetchFunc on every Get so distinct keys
// can map to distinct operations.
type Store struct {
	mu      sync.Mutex
	opts    Options
	entries map[string]*entry
	subs    map[string][]chan Snapshot
}

// NewStore creates a Store with the given options.
func NewStore(opts Options) *Store {
	return &Store{
		opts:    opts.withDefaults(),
		entries: make(map[string]*entry),
		subs:    make(map[string][]chan Snapshot),
	}
}

// Get returns the snapshot for key, fetching when the entry is absent or its
// age exceeds the freshness window. The first caller to need a fetch owns it;
// concurrent callers for the same key block on the same in-flight attempt.
// The returned error is only ever a context error from waiting.
func (s *Store) Get(ctx context.Context, key string, fetch FetchFunc) (Snapshot, error) {
	s.mu.Lock()

	e, ok := s.entries[key]
	if ok && e.done != nil {
		// Attach to the in-flight fetch.
		done := e.done
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return Snapshot{Status: StatusPending}, ctx.Err()
		}
		s.mu.Lock()
		snap := e.snap
		s.mu.Unlock()
		return snap, nil
	}
	if ok && time.Since(e.snap.FetchedAt) < s.opts.TTL {
		snap := e.snap
		s.mu.Unlock()
		return snap, nil
	}

	// This caller owns the fetch for the key.
	e = &entry{
		snap: Snapshot{Status: StatusPending},
		done: make(chan struct{}),
	}
	s.entries[key] = e
	s.notify(key, e.snap)
	s.mu.Unlock()

	snap := s.fetchWithRetry(ctx, key, fetch)

	s.mu.Lock()
	e.snap = snap
	close(e.done)
	e.done = nil
	s.notify(key, snap)
	s.mu.Unlock()

	return snap, nil
}

// Peek reports the current snapshot without triggering a fetch. Unknown keys
// are idle.
func (s *Store) Peek(key string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		return e.snap
	}
	return Snapshot{Status: StatusIdle}
}

// Invalidate drops the cached entry for key. An entry with a fetch in
// flight is left alone; the result still reaches its waiters.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && e.done == nil {
		delete(s.entries, key)
	}
}

// Prune evicts entries whose age exceeds the freshness window and reports
// how many were dropped.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for key, e := range s.entries {
		if e.done != nil {
			continue
		}
		if time.Since(e.snap.FetchedAt) >= s.opts.TTL {
			delete(s.entries, key)
			n++
		}
	}
	return n
}

// Subscribe returns a channel receiving snapshot transitions for key.
// Notifications are best-effort: a slow receiver misses intermediate states,
// never the existence of a terminal one (poll Peek after a miss).
func (s *Store) Subscribe(key string) <-chan Snapshot {
	ch := make(chan Snapshot, 8)
	s.mu.Lock()
	s.subs[key] = append(s.subs[key], ch)
	s.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel previously returned by Subscribe.
func (s *Store) Unsubscribe(key string, ch <-chan Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.subs[key]
	for i, c := range subs {
		if c == ch {
			s.subs[key] = append(subs[:i], subs[i+1:]...)
			close(c)
			return
		}
	}
}

// notify is called with s.mu held.
func (s *Store) notify(key string, snap Snapshot) {
	for _, ch := range s.subs[key] {
		select {
		case ch <- snap:
		default:
		}
	}
}

// fetchWithRetry runs the fetch with exponential backoff between failed
// attempts: BackoffBase, doubling, capped at BackoffMax.
func (s *Store) fetchWithRetry(ctx context.Context, key string, fetch FetchFunc) Snapshot {
	var lastErr error

	for attempt := 0; ; attempt++ {
		data, err := fetch(ctx)
		if err == nil {
			return Snapshot{Status: StatusResolved, Data: data, FetchedAt: time.Now()}
		}
		lastErr = err

		if attempt >= s.opts.MaxRetries || ctx.Err() != nil {
			break
		}

		delay := time.Duration(float64(s.opts.BackoffBase) * math.Pow(2, float64(attempt)))
		if delay > s.opts.BackoffMax {
			delay = s.opts.BackoffMax
		}
		log.Printf("query %s failed (attempt %d): %v; retrying in %s", key, attempt+1, err, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Snapshot{Status: StatusFailed, Err: ctx.Err(), FetchedAt: time.Now()}
		case <-timer.C:
		}
	}

	return Snapshot{Status: StatusFailed, Err: lastErr, FetchedAt: time.Now()}
}
