// Package cache provides subscription-aware cached queries keyed by
// resource identity. A Query caches the last fetched value, serves it while
// fresh, marks it stale on invalidation, and refetches only when a
// subscriber asks again. In-flight fetches carry their own cancellation and
// a generation stamp so a cancelled or superseded fetch never writes the
// cache.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// FetchFunc loads the value from its source of truth.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Query is a cached, invalidatable read of a single resource.
type Query[T any] struct {
	name  string
	fetch FetchFunc[T]
	fresh time.Duration
	gate  func() bool

	mu         sync.Mutex
	value      T
	err        error
	hasValue   bool
	stale      bool
	fetchedAt  time.Time
	generation uint64
	flight     *flight[T]
	subs       map[*Subscription[T]]struct{}

	logger *slog.Logger
}

// flight is one in-flight fetch: joiners wait on done, the owner writes the
// cache only if the generation still matches.
type flight[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	gen    uint64
	value  T
	err    error
}

// Option configures a Query.
type Option[T any] func(*Query[T])

// WithFreshness sets how long a fetched value is served without refetching.
// Zero means every non-disabled read refetches.
func WithFreshness[T any](d time.Duration) Option[T] {
	return func(q *Query[T]) { q.fresh = d }
}

// WithGate sets the enabled predicate. While the gate returns false the
// query serves its cached value (or the zero value) and never fetches.
func WithGate[T any](gate func() bool) Option[T] {
	return func(q *Query[T]) { q.gate = gate }
}

// WithLogger sets the logger.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(q *Query[T]) { q.logger = logger }
}

// NewQuery creates a Query with the given cache key name and fetch function.
func NewQuery[T any](name string, fetch FetchFunc[T], opts ...Option[T]) *Query[T] {
	q := &Query[T]{
		name:   name,
		fetch:  fetch,
		subs:   make(map[*Subscription[T]]struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Name returns the cache key name.
func (q *Query[T]) Name() string { return q.name }

// Peek returns the cached value without fetching.
func (q *Query[T]) Peek() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.value, q.hasValue
}

// Err returns the error of the most recent failed fetch, cleared by the
// next successful one. Views surface it alongside whatever cached value
// is still being rendered.
func (q *Query[T]) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// Stale reports whether the cached value has been invalidated or seeded
// and not yet replaced by a successful fetch.
func (q *Query[T]) Stale() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.hasValue || q.stale
}

// Seed installs a value as stale cache content: it is served immediately
// but the next read still refetches. Used for snapshots loaded from the
// local state store.
func (q *Query[T]) Seed(value T) {
	q.mu.Lock()
	q.value = value
	q.hasValue = true
	q.stale = true
	q.mu.Unlock()
}

// Update applies fn to the cached value in place, without a fetch.
// The result is treated as current (optimistic write).
func (q *Query[T]) Update(fn func(T) T) {
	q.mu.Lock()
	q.value = fn(q.value)
	q.hasValue = true
	q.stale = false
	q.fetchedAt = time.Now()
	q.notifyLocked()
	q.mu.Unlock()
}

// Invalidate marks the cached value stale and cancels any in-flight fetch.
// Subscribers are pinged so they re-read; with no subscribers nothing is
// fetched until the next Result call.
func (q *Query[T]) Invalidate() {
	q.mu.Lock()
	q.generation++
	q.stale = true
	if q.flight != nil {
		q.flight.cancel()
		q.flight = nil
	}
	q.notifyLocked()
	q.mu.Unlock()
}

// Result returns the query value, fetching when the cache is stale or past
// its freshness window. A disabled query never fetches and returns whatever
// is cached. Joining callers share a single in-flight fetch.
func (q *Query[T]) Result(ctx context.Context) (T, error) {
	q.mu.Lock()

	if q.gate != nil && !q.gate() {
		value := q.value
		q.mu.Unlock()
		return value, nil
	}

	if q.hasValue && !q.stale && q.fresh > 0 && time.Since(q.fetchedAt) < q.fresh {
		value := q.value
		q.mu.Unlock()
		return value, nil
	}

	if q.flight != nil {
		f := q.flight
		q.mu.Unlock()
		select {
		case <-f.done:
			return f.value, f.err
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	f := &flight[T]{
		done:   make(chan struct{}),
		cancel: cancel,
		gen:    q.generation,
	}
	q.flight = f
	q.mu.Unlock()

	value, err := q.fetch(fetchCtx)
	cancel()

	q.mu.Lock()
	f.value, f.err = value, err
	if q.flight == f {
		q.flight = nil
	}
	if q.generation == f.gen {
		if err == nil {
			q.value = value
			q.hasValue = true
			q.stale = false
			q.err = nil
			q.fetchedAt = time.Now()
			// A failed fetch leaves the staleness state untouched, so it
			// must not ping subscribers: a subscriber that refetches on
			// pings would otherwise wake on its own failure and spin a hot
			// retry loop. Retries happen on the next external trigger (poll
			// tick or invalidation), never on the error itself.
			q.notifyLocked()
		} else {
			q.err = err
		}
	} else if q.logger.Enabled(context.Background(), slog.LevelDebug) {
		q.logger.Debug("discarding superseded fetch", slog.String("query", q.name))
	}
	q.mu.Unlock()

	close(f.done)
	return value, err
}

// Subscribe registers interest in the query. Invalidation and successful
// cache writes ping the subscription (failed fetches do not); when the last
// subscription closes, any in-flight fetch is cancelled.
func (q *Query[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{
		query: q,
		ch:    make(chan struct{}, 1),
	}
	q.mu.Lock()
	q.subs[sub] = struct{}{}
	q.mu.Unlock()
	return sub
}

// Subscribers returns the current subscription count.
func (q *Query[T]) Subscribers() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.subs)
}

func (q *Query[T]) notifyLocked() {
	for sub := range q.subs {
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

func (q *Query[T]) unsubscribe(sub *Subscription[T]) {
	q.mu.Lock()
	delete(q.subs, sub)
	if len(q.subs) == 0 && q.flight != nil {
		q.flight.cancel()
		q.flight = nil
	}
	q.mu.Unlock()
}

// Subscription is one registered consumer of a Query.
type Subscription[T any] struct {
	query *Query[T]
	ch    chan struct{}
	once  sync.Once
}

// Changes returns a coalescing signal channel pinged on invalidation and
// on successful cache writes.
func (s *Subscription[T]) Changes() <-chan struct{} { return s.ch }

// Close unregisters the subscription.
func (s *Subscription[T]) Close() {
	s.once.Do(func() { s.query.unsubscribe(s) })
}
