// Package queue buffers ledger rows between the game loop and the storage
// backend so that observers never wait on I/O.
package queue

import (
	"sync"
)

// Queue is a generic thread-safe FIFO buffer.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	dropped int
	limit   int
}

// New creates an empty queue. A positive limit bounds its length; pushes
// beyond it are dropped and counted.
func New[T any](limit int) *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0),
		limit: limit,
	}
}

// Push appends items to the queue and reports how many were kept.
func (q *Queue[T]) Push(items ...T) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := len(items)
	if q.limit > 0 && len(q.items)+kept > q.limit {
		kept = max(q.limit-len(q.items), 0)
		q.dropped += len(items) - kept
	}
	q.items = append(q.items, items[:kept]...)
	return kept
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped returns how many pushed items did not fit.
func (q *Queue[T]) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Drain returns all items in push order and empties the queue.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := q.items
	q.items = make([]T, 0, cap(q.items))
	return result
}
