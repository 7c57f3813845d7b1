// Package ttlmap implements a small keyed container with per-entry
// age-based expiration, used for the ARP cache and ARP pending-send table.
package ttlmap

import "time"

type entry[V any] struct {
	value V
	stamp time.Time
}

// Map is an optionally bounded associative container where every entry carries
// a TTL measured from insertion time. Lookups lazily purge expired
// entries instead of running a background sweep, matching the
// single-threaded, poll-driven scheduling of the rest of the stack.
//
// The zero value is not usable; call New.
type Map[K comparable, V any] struct {
	ttl     time.Duration
	maxSize int
	entries map[K]entry[V]
	// Now returns the current time. Overridable for deterministic tests;
	// defaults to time.Now.
	Now func() time.Time
}

// New creates a Map whose entries expire ttl after insertion. maxSize
// bounds the number of live entries; 0 means unbounded. When the map is
// full, Set evicts nothing and simply refuses new keys (existing keys can
// still be refreshed).
func New[K comparable, V any](ttl time.Duration, maxSize int) *Map[K, V] {
	return &Map[K, V]{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[K]entry[V]),
		Now:     time.Now,
	}
}

func (m *Map[K, V]) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Set inserts or refreshes the value for k, resetting its age to zero. It
// reports false if the map is at capacity and k is not already present.
func (m *Map[K, V]) Set(k K, v V) bool {
	if _, ok := m.entries[k]; !ok && m.maxSize > 0 && len(m.entries) >= m.maxSize {
		return false
	}
	m.entries[k] = entry[V]{value: v, stamp: m.now()}
	return true
}

// Get returns the value for k and true, unless the entry is absent or its
// age exceeds the TTL, in which case it is purged and the zero value
// returned with false.
func (m *Map[K, V]) Get(k K) (v V, ok bool) {
	e, found := m.entries[k]
	if !found {
		return v, false
	}
	if m.expired(e) {
		delete(m.entries, k)
		return v, false
	}
	return e.value, true
}

// Has reports whether k has a live, unexpired entry, purging it first if
// expired.
func (m *Map[K, V]) Has(k K) bool {
	_, ok := m.Get(k)
	return ok
}

// Delete removes k unconditionally.
func (m *Map[K, V]) Delete(k K) {
	delete(m.entries, k)
}

// Len returns the number of entries currently stored, including any not
// yet lazily purged despite being expired.
func (m *Map[K, V]) Len() int { return len(m.entries) }

func (m *Map[K, V]) expired(e entry[V]) bool {
	return m.ttl > 0 && m.now().Sub(e.stamp) > m.ttl
}

// Foreach calls fn for every live entry, oldest insertion order is not
// guaranteed. Expired entries are skipped and purged as encountered.
func (m *Map[K, V]) Foreach(fn func(k K, v V, age time.Duration)) {
	now := m.now()
	for k, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, k)
			continue
		}
		fn(k, e.value, now.Sub(e.stamp))
	}
}
