// Package weakmap associates values with objects by identity without keeping
// those objects alive and without touching their fields.
package weakmap

import (
	"runtime"
	"sync"
	"unsafe"
	"weak"
)

type entry[K, V any] struct {
	at    uintptr
	key   weak.Pointer[K]
	value V

	// pinned holds keys the collector never frees: package-level variables
	// and values of zero-size types. They cannot carry weak pointers.
	pinned  *K
	cleanup runtime.Cleanup
}

func (e *entry[K, V]) holds(key *K) bool {
	if e.pinned != nil {
		return e.pinned == key
	}
	return e.key.Value() == key
}

// Map is a side table keyed weakly by *K. Once a key becomes unreachable its
// entry is dropped by the garbage collector's cleanup hook.
//
// Keys that do not live on the heap (package-level variables, pointers to
// zero-size values) are never collected, so their entries stay until
// Delete. All pointers to zero-size values may share one address and
// therefore one entry.
//
// A value that references its own key keeps that key alive; Go has no
// ephemerons, so store unbound data.
//
// Map is safe for concurrent use.
type Map[K, V any] struct {
	mu      sync.Mutex
	entries map[uintptr]*entry[K, V]
}

func New[K, V any]() *Map[K, V] {
	return &Map[K, V]{}
}

func addr[K any](key *K) uintptr {
	return uintptr(unsafe.Pointer(key))
}

// lookup must be called with m.mu held. An entry left behind by a dead key
// whose address was reused does not match.
func (m *Map[K, V]) lookup(key *K) (*entry[K, V], bool) {
	e, ok := m.entries[addr(key)]
	if !ok || !e.holds(key) {
		return nil, false
	}
	return e, true
}

// insert must be called with m.mu held.
func (m *Map[K, V]) insert(key *K, value V) *entry[K, V] {
	if m.entries == nil {
		m.entries = map[uintptr]*entry[K, V]{}
	}
	e := &entry[K, V]{at: addr(key), value: value}
	// AddCleanup hands back the zero Cleanup for pointers outside the heap.
	e.cleanup = runtime.AddCleanup(key, m.collect, e)
	if e.cleanup == (runtime.Cleanup{}) {
		e.pinned = key
	} else {
		e.key = weak.Make(key)
	}
	if stale, ok := m.entries[e.at]; ok {
		stale.stop()
	}
	m.entries[e.at] = e
	return e
}

func (e *entry[K, V]) stop() {
	if e.pinned == nil {
		e.cleanup.Stop()
	}
}

// Set stores value under key and returns m so calls can be chained.
// Set panics on a nil key.
func (m *Map[K, V]) Set(key *K, value V) *Map[K, V] {
	if key == nil {
		panic("weakmap: nil key")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.lookup(key); ok {
		e.value = value
		return m
	}
	m.insert(key, value)
	return m
}

// Get returns the value stored under key, if any.
func (m *Map[K, V]) Get(key *K) (value V, ok bool) {
	if key == nil {
		return value, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(key)
	if !ok {
		return value, false
	}
	return e.value, true
}

func (m *Map[K, V]) Has(key *K) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key and reports whether it was present.
func (m *Map[K, V]) Delete(key *K) bool {
	if key == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(key)
	if !ok {
		return false
	}
	e.stop()
	delete(m.entries, e.at)
	return true
}

// Len reports the number of entries. An entry whose key was just collected
// counts until its cleanup has run.
func (m *Map[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Update replaces the value under key with fn applied to the current value
// (the zero value when absent) while holding the lock.
func (m *Map[K, V]) Update(key *K, fn func(value V, ok bool) V) V {
	if key == nil {
		panic("weakmap: nil key")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.lookup(key); ok {
		e.value = fn(e.value, true)
		return e.value
	}
	var zero V
	return m.insert(key, fn(zero, false)).value
}

func (m *Map[K, V]) collect(e *entry[K, V]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[e.at] == e {
		delete(m.entries, e.at)
	}
}
