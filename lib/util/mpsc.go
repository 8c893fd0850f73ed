// Package util provides an unbounded multi-producer single-consumer (MPSC) queue.
//
// The queue is the mailbox primitive of the lock service: every manager node drains
// exactly one queue on one goroutine, and every outbound peer link is one queue drained
// by one sender. Producers never block, which keeps actors from deadlocking on each other.
//
// Features and Guarantees:
//
//   - Lock-Free Push: producers append with a CAS on the tail, no mutex on the hot path
//   - Unbounded Size: the queue grows as needed, limited only by available memory
//   - Per-Producer FIFO: items pushed by one goroutine are received in push order.
//     Items from different producers interleave in the order their CAS succeeded.
//   - Single Consumer: exactly one goroutine should range over Recv()
//   - Graceful Close: items pushed before Close are still delivered, then Recv is closed
package util

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// cell is a single element of the linked list
type cell[T any] struct {
	value T
	next  atomic.Pointer[cell[T]]
}

// MPSC is an unbounded multi-producer single-consumer queue.
// Values are pushed by any number of goroutines and delivered in order on Recv().
type MPSC[T any] struct {
	head   atomic.Pointer[cell[T]] // sentinel, owned by the pump goroutine
	tail   atomic.Pointer[cell[T]]
	out    chan T
	length atomic.Int64
	closed atomic.Bool

	// parking for the pump goroutine when the list is empty
	mu   sync.Mutex
	cond *sync.Cond
}

// NewMPSC creates a new queue and starts the goroutine that feeds Recv().
func NewMPSC[T any]() *MPSC[T] {
	sentinel := &cell[T]{}

	q := &MPSC[T]{
		out: make(chan T),
	}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	go q.pump()

	return q
}

// Push appends a value to the queue.
// Returns false if the queue is closed and the value was dropped.
func (q *MPSC[T]) Push(value T) bool {
	if q.closed.Load() {
		return false
	}

	c := &cell[T]{value: value}
	spins := 0

	for {
		tail := q.tail.Load()
		next := tail.next.Load()

		if next != nil {
			// another producer linked a cell but has not moved the tail yet
			q.tail.CompareAndSwap(tail, next)
			continue
		}

		if tail.next.CompareAndSwap(nil, c) {
			q.tail.CompareAndSwap(tail, c)
			q.length.Add(1)
			q.wake()
			return true
		}

		// contention: spin briefly, then yield
		if spins < 8 {
			spins++
			for i := 0; i < 1<<spins; i++ {
				runtime.Gosched()
			}
		} else {
			runtime.Gosched()
		}
	}
}

// Recv returns the channel the consumer reads from.
// The channel is closed after Close once every queued value has been delivered.
func (q *MPSC[T]) Recv() <-chan T {
	return q.out
}

// Close stops accepting new values. Values already queued are still delivered.
func (q *MPSC[T]) Close() {
	if q.closed.Swap(true) {
		return
	}
	q.wake()
}

// IsClosed reports whether Close was called.
func (q *MPSC[T]) IsClosed() bool {
	return q.closed.Load()
}

// Len returns the number of values pushed but not yet handed to the consumer.
func (q *MPSC[T]) Len() int {
	return int(q.length.Load())
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// wake signals the pump. Signal happens under mu so it cannot slip between the
// pump's emptiness check and its Wait.
func (q *MPSC[T]) wake() {
	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()
}

// pump moves values from the linked list to the out channel
func (q *MPSC[T]) pump() {
	defer close(q.out)

	for {
		head := q.head.Load()
		next := head.next.Load()

		if next != nil {
			value := next.value
			q.head.Store(next)

			// release the reference held by the new sentinel
			var zero T
			next.value = zero

			q.out <- value
			q.length.Add(-1)
			continue
		}

		if q.closed.Load() {
			// a producer may have linked a cell right before Close
			if q.head.Load().next.Load() == nil {
				return
			}
			continue
		}

		q.mu.Lock()
		if q.head.Load().next.Load() == nil && !q.closed.Load() {
			q.cond.Wait()
		}
		q.mu.Unlock()
	}
}
