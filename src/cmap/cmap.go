// Package cmap provides a sharded keyed map safe for many concurrent readers
// and writers. Each shard is guarded by its own lock, so operations on
// unrelated keys do not serialize. Every operation comes in two flavors: a
// Try variant that never blocks the calling goroutine, and an awaiting
// variant that retries the Try operation, yielding to the scheduler between
// attempts, until it acquires the shard or the context is done. No shard
// lock is ever held across a yield.
package cmap

import (
	"context"
	"hash/fnv"
	"runtime"
	"sync"
	"time"
)

const (
	shardCount = 32

	// spinYields is the number of scheduler yields attempted before awaiting
	// escalates to timed sleeps.
	spinYields = 4

	retrySleep = 50 * time.Microsecond
)

// Map is a sharded mapping from string keys to values of type V.
type Map[V any] struct {
	shards [shardCount]shard[V]
}

type shard[V any] struct {
	mu    sync.Mutex
	items map[string]V
}

// New returns an empty Map.
func New[V any]() *Map[V] {
	m := &Map[V]{}
	for i := range m.shards {
		m.shards[i].items = make(map[string]V)
	}
	return m
}

func (m *Map[V]) shard(key string) *shard[V] {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &m.shards[h.Sum32()%shardCount]
}

// await acquires the shard lock without blocking the goroutine on the mutex
// itself: contention yields control back to the scheduler and retries.
func await[V any](ctx context.Context, s *shard[V]) error {
	for i := 0; ; i++ {
		if s.mu.TryLock() {
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if i < spinYields {
			runtime.Gosched()
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retrySleep):
		}
	}
}

// TryGet returns the value stored under key without blocking. The second
// return reports presence; the third reports whether the shard lock could be
// acquired at all. When it is false the other returns are meaningless.
func (m *Map[V]) TryGet(key string) (V, bool, bool) {
	s := m.shard(key)
	if !s.mu.TryLock() {
		var zero V
		return zero, false, false
	}
	defer s.mu.Unlock()

	v, ok := s.items[key]
	return v, ok, true
}

// Get awaits the shard and returns the value stored under key.
func (m *Map[V]) Get(ctx context.Context, key string) (V, bool, error) {
	s := m.shard(key)
	if err := await(ctx, s); err != nil {
		var zero V
		return zero, false, err
	}
	defer s.mu.Unlock()

	v, ok := s.items[key]
	return v, ok, nil
}

// TryInsert stores value under key without blocking, returning any previous
// value. The third return reports whether the shard lock could be acquired.
func (m *Map[V]) TryInsert(key string, value V) (V, bool, bool) {
	s := m.shard(key)
	if !s.mu.TryLock() {
		var zero V
		return zero, false, false
	}
	defer s.mu.Unlock()

	prev, had := s.items[key]
	s.items[key] = value
	return prev, had, true
}

// Insert awaits the shard and stores value under key, returning any previous
// value.
func (m *Map[V]) Insert(ctx context.Context, key string, value V) (V, bool, error) {
	s := m.shard(key)
	if err := await(ctx, s); err != nil {
		var zero V
		return zero, false, err
	}
	defer s.mu.Unlock()

	prev, had := s.items[key]
	s.items[key] = value
	return prev, had, nil
}

// Len returns the total number of entries.
func (m *Map[V]) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		n += len(s.items)
		s.mu.Unlock()
	}
	return n
}

// Entry is a handle positioned at the slot for a key, occupied or vacant. It
// holds the shard lock until Release is called, permitting insert-if-absent
// or replace without a second lookup. Callers must not suspend while holding
// an Entry.
type Entry[V any] struct {
	s   *shard[V]
	key string
}

// TryEntry returns a locked Entry for key without blocking. The second
// return reports whether the shard lock could be acquired.
func (m *Map[V]) TryEntry(key string) (*Entry[V], bool) {
	s := m.shard(key)
	if !s.mu.TryLock() {
		return nil, false
	}
	return &Entry[V]{s: s, key: key}, true
}

// Entry awaits the shard and returns a locked Entry for key.
func (m *Map[V]) Entry(ctx context.Context, key string) (*Entry[V], error) {
	s := m.shard(key)
	if err := await(ctx, s); err != nil {
		return nil, err
	}
	return &Entry[V]{s: s, key: key}, nil
}

// Get returns the value at the entry, if occupied.
func (e *Entry[V]) Get() (V, bool) {
	v, ok := e.s.items[e.key]
	return v, ok
}

// Set stores a value at the entry, occupied or not.
func (e *Entry[V]) Set(value V) {
	e.s.items[e.key] = value
}

// OrInsert returns the value at the entry, storing and returning the given
// value if the entry was vacant.
func (e *Entry[V]) OrInsert(value V) V {
	if v, ok := e.s.items[e.key]; ok {
		return v
	}
	e.s.items[e.key] = value
	return value
}

// Release unlocks the shard. The Entry must not be used afterwards.
func (e *Entry[V]) Release() {
	e.s.mu.Unlock()
}
