/*
Package syncmap implements a concurrent memoization map.

A Map is split into a fixed number of shards, each guarded by its own
read-write mutex. Values are computed at most once per key in the common case;
if two goroutines race on a missing key, both may compute a value, but only
the first one stored is ever returned. Compute functions must therefore be
idempotent and free of side effects.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package syncmap

import (
	"hash/maphash"
	"sync"
)

const shardCount = 32

// Map is a lock-striped map from K to V. The zero value is not usable,
// use New.
type Map[K comparable, V any] struct {
	seed   maphash.Seed
	shards [shardCount]shard[K, V]
}

type shard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// New creates an empty map.
func New[K comparable, V any]() *Map[K, V] {
	m := &Map[K, V]{seed: maphash.MakeSeed()}
	for i := range m.shards {
		m.shards[i].m = make(map[K]V)
	}
	return m
}

func (m *Map[K, V]) shard(k K) *shard[K, V] {
	h := maphash.Comparable(m.seed, k)
	return &m.shards[h%shardCount]
}

// Load returns the value stored for k, if any.
func (m *Map[K, V]) Load(k K) (V, bool) {
	s := m.shard(k)
	s.mu.RLock()
	v, ok := s.m[k]
	s.mu.RUnlock()
	return v, ok
}

// LoadOrCompute returns the value stored for k. If k is missing, compute is
// called without holding a lock and its result is stored, unless another
// goroutine stored a value for k in the meantime.
func (m *Map[K, V]) LoadOrCompute(k K, compute func() V) V {
	if v, ok := m.Load(k); ok {
		return v
	}
	v := compute()
	s := m.shard(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.m[k]; ok {
		return prev
	}
	s.m[k] = v
	return v
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}

// Clear removes all entries.
func (m *Map[K, V]) Clear() {
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		clear(s.m)
		s.mu.Unlock()
	}
}
