// Package poolmem implements Agrama's memory-pool substrate: fixed-size
// object pools, scoped arenas, and a SIMD-aligned embedding pool, each
// process-scoped and instrumented with allocation analytics.
//
// Pools use mutex-guarded free lists and atomic counters, the same
// discipline as a reusable connection pool, generalized to any value
// type via generics.
package poolmem

import (
	"sync"
	"sync/atomic"
)

// Stats reports the standard pool analytics surfaced by every pool kind.
type Stats struct {
	TotalAllocated int64
	TotalFreed     int64
	Current        int64
	Peak           int64
	Free           int64
}

// FixedPool is a pre-allocated, geometrically-growing pool of *T values.
// Acquire pops from the free list (growing the backing slab by 1.5x up to
// MaxSize on exhaustion); Release zeroes the value and returns it to the
// free list. Safe for concurrent use.
type FixedPool[T any] struct {
	newFn   func() *T
	resetFn func(*T)
	maxSize int

	mu    sync.Mutex
	free  []*T
	total int64 // total ever allocated

	allocated int64
	freed     int64
	current   int64
	peak      int64
}

// NewFixedPool creates a pool of T with an initial slab of `initial` values
// and a hard cap of `maxSize` (0 = unbounded growth).
func NewFixedPool[T any](initial, maxSize int, newFn func() *T, resetFn func(*T)) *FixedPool[T] {
	if newFn == nil {
		newFn = func() *T { return new(T) }
	}
	p := &FixedPool[T]{
		newFn:   newFn,
		resetFn: resetFn,
		maxSize: maxSize,
	}
	for i := 0; i < initial; i++ {
		p.free = append(p.free, p.newFn())
	}
	p.total = int64(initial)
	p.current = int64(initial)
	p.peak = int64(initial)
	return p
}

// Acquire pops a value from the free list, growing the pool geometrically
// (x1.5) if empty, up to maxSize. Returns agerr-compatible nil and false
// when the pool is at cap and has nothing free.
func (p *FixedPool[T]) Acquire() (*T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		if !p.growLocked() {
			return nil, false
		}
	}

	n := len(p.free) - 1
	v := p.free[n]
	p.free = p.free[:n]

	atomic.AddInt64(&p.allocated, 1)
	p.current++
	if p.current > p.peak {
		p.peak = p.current
	}
	return v, true
}

// growLocked grows the backing slab by 1.5x (minimum 1), respecting maxSize.
// Must be called with mu held.
func (p *FixedPool[T]) growLocked() bool {
	growBy := p.total / 2
	if growBy < 1 {
		growBy = 1
	}
	if p.maxSize > 0 {
		if p.total >= int64(p.maxSize) {
			return false
		}
		if p.total+growBy > int64(p.maxSize) {
			growBy = int64(p.maxSize) - p.total
		}
	}
	for i := int64(0); i < growBy; i++ {
		p.free = append(p.free, p.newFn())
	}
	p.total += growBy
	return len(p.free) > 0
}

// Release zeroes v (via resetFn, if provided) and returns it to the free
// list. The pool owns v after this call; callers must not retain it.
func (p *FixedPool[T]) Release(v *T) {
	if v == nil {
		return
	}
	if p.resetFn != nil {
		p.resetFn(v)
	} else {
		*v = *new(T)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, v)
	atomic.AddInt64(&p.freed, 1)
	p.current--
}

// Stats returns a snapshot of the pool's allocation analytics.
func (p *FixedPool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		TotalAllocated: atomic.LoadInt64(&p.allocated),
		TotalFreed:     atomic.LoadInt64(&p.freed),
		Current:        p.current,
		Peak:           p.peak,
		Free:           int64(len(p.free)),
	}
}
