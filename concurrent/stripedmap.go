// Package concurrent provides the two fine-grained-locked collection
// primitives the tree engine is built on: a bucket-striped map and a
// hand-over-hand locked sorted list. Both trade a single global lock for
// many small ones. The list's traversal is hand-over-hand, so a walk can
// proceed concurrently with point mutations on links it hasn't reached
// yet; the map's point operations lock a single bucket, while its ForEach
// holds every bucket's read lock for the whole walk.
package concurrent

import (
	"sync"
	"sync/atomic"
)

const defaultBucketCount = 13

// StripedMap is a concurrent name -> value map with one read/write lock per
// bucket. Capacity is enforced with an atomic CAS on a shared size counter,
// so inserts that would exceed a caller-supplied limit fail cleanly instead
// of racing past it.
type StripedMap[K comparable, V any] struct {
	hash    func(K) uint64
	buckets []bucket[K, V]
	size    atomic.Int64
}

type bucket[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

// NewStripedMap builds a striped map with the default bucket count (13, a
// small prime, matching the source's default). hash must be a stable,
// well-distributed hash of K.
func NewStripedMap[K comparable, V any](hash func(K) uint64) *StripedMap[K, V] {
	return NewStripedMapN[K, V](defaultBucketCount, hash)
}

// NewStripedMapN builds a striped map with an explicit bucket count, mostly
// useful for tests that want to force collisions.
func NewStripedMapN[K comparable, V any](buckets int, hash func(K) uint64) *StripedMap[K, V] {
	if buckets <= 0 {
		buckets = defaultBucketCount
	}
	m := &StripedMap[K, V]{
		hash:    hash,
		buckets: make([]bucket[K, V], buckets),
	}
	for i := range m.buckets {
		m.buckets[i].entries = make(map[K]V)
	}
	return m
}

func (m *StripedMap[K, V]) bucketFor(k K) *bucket[K, V] {
	idx := m.hash(k) % uint64(len(m.buckets))
	return &m.buckets[idx]
}

// Find returns a copy of the value stored under k, if any.
func (m *StripedMap[K, V]) Find(k K) (V, bool) {
	b := m.bucketFor(k)
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.entries[k]
	return v, ok
}

// InsertWithLimitOrAssign overwrites an existing entry, or inserts a new one
// if the map's total size is still under limit. Returns false only when the
// key is absent and the map is already at limit.
func (m *StripedMap[K, V]) InsertWithLimitOrAssign(k K, v V, limit int) bool {
	b := m.bucketFor(k)
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.entries[k]; exists {
		b.entries[k] = v
		return true
	}

	for {
		cur := m.size.Load()
		if cur >= int64(limit) {
			return false
		}
		if m.size.CompareAndSwap(cur, cur+1) {
			b.entries[k] = v
			return true
		}
	}
}

// FindOrInsertWithLimit returns the existing value for k, or inserts v and
// returns it if the map has room. The bool is false only when the key was
// absent and the map was at limit; in that case the returned value is the
// zero value of V.
func (m *StripedMap[K, V]) FindOrInsertWithLimit(k K, v V, limit int) (V, bool) {
	b := m.bucketFor(k)
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.entries[k]; ok {
		return existing, true
	}

	for {
		cur := m.size.Load()
		if cur >= int64(limit) {
			var zero V
			return zero, false
		}
		if m.size.CompareAndSwap(cur, cur+1) {
			b.entries[k] = v
			return v, true
		}
	}
}

// Erase removes k if present, returning whether it was there.
func (m *StripedMap[K, V]) Erase(k K) bool {
	b := m.bucketFor(k)
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.entries[k]; !ok {
		return false
	}
	delete(b.entries, k)
	m.size.Add(-1)
	return true
}

// Clear removes every entry. Bucket locks are taken in index order, the
// same order ForEach uses, so Clear can never deadlock against a concurrent
// ForEach on the same map.
func (m *StripedMap[K, V]) Clear() {
	for i := range m.buckets {
		m.buckets[i].mu.Lock()
	}
	n := 0
	for i := range m.buckets {
		n += len(m.buckets[i].entries)
		m.buckets[i].entries = make(map[K]V)
	}
	for i := range m.buckets {
		m.buckets[i].mu.Unlock()
	}
	m.size.Add(-int64(n))
}

// ForEach applies f to every entry. All bucket locks are acquired, in index
// order, as shared locks for the duration of the call — the same order
// Clear takes them in, so the two can never deadlock against each other —
// so f sees a genuine single-instant snapshot across buckets. f must never
// call back into this map, since every bucket lock is already held.
func (m *StripedMap[K, V]) ForEach(f func(k K, v V)) {
	for i := range m.buckets {
		m.buckets[i].mu.RLock()
	}
	for i := range m.buckets {
		for k, v := range m.buckets[i].entries {
			f(k, v)
		}
	}
	for i := range m.buckets {
		m.buckets[i].mu.RUnlock()
	}
}

// Size returns the approximate entry count; exact if no mutation races the
// call.
func (m *StripedMap[K, V]) Size() int {
	return int(m.size.Load())
}

// Keys returns a snapshot of all keys currently present. Unlike ForEach this
// copies names out before returning, so callers can safely delete entries
// while iterating the result.
func (m *StripedMap[K, V]) Keys() []K {
	keys := make([]K, 0, m.Size())
	m.ForEach(func(k K, _ V) {
		keys = append(keys, k)
	})
	return keys
}
