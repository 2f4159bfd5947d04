package ring

import (
	"sync/atomic"
)

// ----- Ring ----- //

// Ring is a fixed-capacity single-producer/single-consumer queue.
//
// Enqueue must only be called from one goroutine and Dequeue/Drain from one
// (other) goroutine. Neither side ever blocks or allocates.
type Ring[T any] struct {
	buf  []T
	mask uint64
	_    [56]byte
	// written only by the producer
	write atomic.Uint64
	_     [56]byte
	// written only by the consumer
	read atomic.Uint64
	_    [56]byte
}

// New creates a ring holding at least capacity items.
// The capacity is rounded up to a power of two.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &Ring[T]{
		buf:  make([]T, size),
		mask: uint64(size - 1),
	}
}

// Cap ...
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Len is a snapshot; it may be stale by the time the caller looks at it.
func (r *Ring[T]) Len() int {
	return int(r.write.Load() - r.read.Load())
}

// Enqueue returns false when the ring is full. The item is dropped in that case.
func (r *Ring[T]) Enqueue(v T) bool {
	w := r.write.Load()
	if w-r.read.Load() >= uint64(len(r.buf)) {
		return false
	}
	r.buf[w&r.mask] = v
	// publishes the slot to the consumer
	r.write.Store(w + 1)
	return true
}

// Dequeue ...
func (r *Ring[T]) Dequeue() (T, bool) {
	var zero T
	rd := r.read.Load()
	if rd == r.write.Load() {
		return zero, false
	}
	v := r.buf[rd&r.mask]
	r.buf[rd&r.mask] = zero
	// hands the slot back to the producer
	r.read.Store(rd + 1)
	return v, true
}

// Drain passes every queued item to handle in enqueue order and returns the count.
// Items enqueued while draining are left for the next call.
func (r *Ring[T]) Drain(handle func(T)) int {
	var zero T
	rd := r.read.Load()
	w := r.write.Load()
	n := 0
	for ; rd != w; rd++ {
		v := r.buf[rd&r.mask]
		r.buf[rd&r.mask] = zero
		r.read.Store(rd + 1)
		handle(v)
		n++
	}
	return n
}
