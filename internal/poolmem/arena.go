package poolmem

import (
	"sync"
)

// Arena is a scoped allocator: every value handed out through Alloc is
// tracked and freed in one shot when the arena is released. An arena must
// not be shared across goroutines; ArenaManager vends one per call.
type Arena struct {
	manager *ArenaManager
	kind    string
	objects []any
	released bool
}

// Alloc records v as owned by this arena and returns it unchanged. It is a
// bookkeeping hook, not an allocator in the C sense — Go values still come
// from the runtime heap/stack, but the arena is the single authority for
// when they become unreachable from primitive code.
func (a *Arena) Alloc(v any) any {
	if a.released {
		panic("poolmem: Alloc on released arena")
	}
	a.objects = append(a.objects, v)
	return v
}

// Release returns the arena to its manager. Every value allocated from it is
// dropped (objects slice truncated to zero length and the backing array
// reused), satisfying the "no allocation survives release" property.
func (a *Arena) Release() {
	if a.released {
		return
	}
	a.released = true
	a.manager.reclaim(a)
}

// reset clears an arena for reuse without returning it to the runtime.
func (a *Arena) reset() {
	a.objects = a.objects[:0]
	a.released = false
}

// ArenaManager vends scoped arenas sized for the engine's three call
// shapes (primitive execution, search, JSON marshaling) and reuses
// released arenas instead of discarding them.
type ArenaManager struct {
	mu decimalMutex

	pools map[string]*arenaFreeList

	// analytics
	vended   int64
	released int64
	reused   int64
}

type arenaFreeList struct {
	free []*Arena
}

// decimalMutex is just sync.Mutex; named locally for readability of the
// free-list critical section.
type decimalMutex = sync.Mutex

// NewArenaManager creates a manager with free lists for the standard scope
// kinds used by the engine: "primitive", "search", "json".
func NewArenaManager() *ArenaManager {
	return &ArenaManager{
		pools: map[string]*arenaFreeList{
			"primitive": {},
			"search":    {},
			"json":      {},
		},
	}
}

// Acquire vends an arena scoped to kind, reusing a released one if
// available.
func (m *ArenaManager) Acquire(kind string) *Arena {
	m.mu.Lock()
	defer m.mu.Unlock()

	fl, ok := m.pools[kind]
	if !ok {
		fl = &arenaFreeList{}
		m.pools[kind] = fl
	}

	m.vended++
	if n := len(fl.free); n > 0 {
		a := fl.free[n-1]
		fl.free = fl.free[:n-1]
		a.reset()
		m.reused++
		return a
	}

	return &Arena{manager: m, kind: kind}
}

// reclaim resets and returns an arena to its kind's free list.
func (m *ArenaManager) reclaim(a *Arena) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released++
	a.objects = a.objects[:0]
	fl := m.pools[a.kind]
	fl.free = append(fl.free, a)
}

// OverheadSaved estimates, in allocation counts, how many arena allocations
// were avoided by reusing released arenas instead of constructing fresh
// ones.
func (m *ArenaManager) OverheadSaved() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reused
}
