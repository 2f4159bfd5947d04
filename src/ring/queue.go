package ring

import (
	"log"
	"sync/atomic"
)

// ----- Queue ----- //

// Queue is a named Ring that counts dropped items and warns once per
// saturation episode. The warning re-arms after the consumer drains the
// queue empty.
type Queue[T any] struct {
	*Ring[T]
	name    string
	dropped atomic.Uint64
	warned  atomic.Bool
	logf    func(format string, v ...interface{})
}

// NewQueue ...
func NewQueue[T any](name string, capacity int) *Queue[T] {
	return &Queue[T]{
		Ring: New[T](capacity),
		name: name,
		logf: log.Printf,
	}
}

// Push enqueues v. On overflow the item is dropped and false is returned.
// Producer side only.
func (q *Queue[T]) Push(v T) bool {
	if q.Enqueue(v) {
		return true
	}
	q.dropped.Add(1)
	if q.warned.CompareAndSwap(false, true) {
		q.logf("WARN: %s queue is full (capacity %d), dropping messages\n", q.name, q.Cap())
	}
	return false
}

// Drain is Ring.Drain plus re-arming the overflow warning. Consumer side only.
func (q *Queue[T]) Drain(handle func(T)) int {
	n := q.Ring.Drain(handle)
	if q.warned.Load() && q.Len() == 0 {
		q.warned.Store(false)
	}
	return n
}

// Dropped returns how many items have been rejected so far.
func (q *Queue[T]) Dropped() uint64 {
	return q.dropped.Load()
}

// Name ...
func (q *Queue[T]) Name() string {
	return q.name
}
