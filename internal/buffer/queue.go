// Package buffer provides an in-memory FIFO used to hand cycle summaries
// and store writes from the refresh path to slower consumers.
package buffer

import (
	"context"
	"sync"
)

// Queue is a goroutine-safe FIFO whose ring grows by doubling when full.
// With a positive limit it keeps only the newest limit items.
type Queue[T any] struct {
	mu    sync.Mutex
	buf   []T
	head  int
	count int
	limit int

	closed bool
	done   chan struct{}
	ready  chan struct{}

	sent     int64
	received int64
	dropped  int64
}

// Stats contains queue counters.
type Stats struct {
	Len      int
	Capacity int
	Sent     int64
	Received int64
	Dropped  int64
}

// NewQueue creates an unbounded queue with the given starting capacity.
func NewQueue[T any](initialCapacity int) *Queue[T] {
	return NewLimitedQueue[T](initialCapacity, 0)
}

// NewLimitedQueue creates a queue that discards its oldest item once it
// holds limit items. A limit of zero means unbounded.
func NewLimitedQueue[T any](initialCapacity, limit int) *Queue[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	return &Queue[T]{
		buf:   make([]T, initialCapacity),
		limit: limit,
		done:  make(chan struct{}),
		ready: make(chan struct{}, 1),
	}
}

// Send appends item. It returns false if the queue is closed.
func (q *Queue[T]) Send(item T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}

	if q.limit > 0 && q.count >= q.limit {
		q.popLocked()
		q.dropped++
	} else if q.count == len(q.buf) {
		q.growLocked()
	}

	q.buf[(q.head+q.count)%len(q.buf)] = item
	q.count++
	q.sent++
	q.mu.Unlock()

	q.signal()
	return true
}

// Receive blocks until an item is available, the queue is closed and
// drained, or ctx ends. ok is false in the latter two cases.
func (q *Queue[T]) Receive(ctx context.Context) (item T, ok bool) {
	for {
		q.mu.Lock()
		if q.count > 0 {
			item = q.popLocked()
			q.received++
			more := q.count > 0
			q.mu.Unlock()
			if more {
				q.signal()
			}
			return item, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return item, false
		}

		select {
		case <-ctx.Done():
			return item, false
		case <-q.done:
		case <-q.ready:
		}
	}
}

// TryReceive returns the oldest item without blocking.
func (q *Queue[T]) TryReceive() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return item, false
	}
	q.received++
	return q.popLocked(), true
}

// Drain removes up to max items (all items if max <= 0) in FIFO order.
func (q *Queue[T]) Drain(max int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.count
	if max > 0 && max < n {
		n = max
	}
	if n == 0 {
		return nil
	}

	items := make([]T, n)
	for i := range items {
		items[i] = q.popLocked()
	}
	q.received += int64(n)
	return items
}

// Close stops further sends. Queued items can still be received.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.done)
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Stats returns queue counters.
func (q *Queue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Len:      q.count,
		Capacity: len(q.buf),
		Sent:     q.sent,
		Received: q.received,
		Dropped:  q.dropped,
	}
}

func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// popLocked removes the head item. Caller holds mu and count > 0.
func (q *Queue[T]) popLocked() T {
	var zero T
	item := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return item
}

// growLocked doubles the ring, unwrapping it to start at index 0.
func (q *Queue[T]) growLocked() {
	grown := make([]T, len(q.buf)*2)
	n := copy(grown, q.buf[q.head:])
	copy(grown[n:], q.buf[:q.head])
	q.buf = grown
	q.head = 0
}
