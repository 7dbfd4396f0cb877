// Package intern provides the grow-only, id-indexed arenas this compiler
// uses instead of pointer graphs (spec.md §9: "interned ids instead of
// pointer graphs"). An arena's index is stable for its lifetime and is
// shared across threads behind a reader-writer lock, the same pattern the
// teacher's module table used for its id-indexed definition table.
package intern

import "sync"

// Idx is a typed index into an Arena[T]. The zero value indexes the first
// element ever pushed; arenas never reuse or invalidate an index.
type Idx[T any] uint32

// Arena is a grow-only, thread-safe vector indexed by Idx[T]. Lookups take
// a read lock; Push takes a write lock briefly, mirroring the interned
// string/type/definition tables described in spec.md §5.
type Arena[T any] struct {
	mu    sync.RWMutex
	items []T
}

// NewArena returns an empty arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Push appends v and returns its stable index.
func (a *Arena[T]) Push(v T) Idx[T] {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := Idx[T](len(a.items))
	a.items = append(a.items, v)
	return idx
}

// Get returns the element at idx.
func (a *Arena[T]) Get(idx Idx[T]) T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.items[idx]
}

// Set overwrites the element at idx in place. Used sparingly — e.g. MIR
// block-building patches a terminator after the block's statements are
// known — never to change an index's identity.
func (a *Arena[T]) Set(idx Idx[T], v T) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items[idx] = v
}

// Len returns the number of elements pushed so far.
func (a *Arena[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

// Each calls f for every element in index order. f must not call back into
// the arena (Each holds the read lock for its duration).
func (a *Arena[T]) Each(f func(Idx[T], T)) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for i, v := range a.items {
		f(Idx[T](i), v)
	}
}

// Snapshot returns a copy of the arena's current contents, safe to retain
// after the arena keeps growing.
func (a *Arena[T]) Snapshot() []T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]T, len(a.items))
	copy(out, a.items)
	return out
}
