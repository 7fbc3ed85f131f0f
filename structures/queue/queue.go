package queue

import (
	"context"
	"iter"
	"sync"
)

// Queue is a concurrency-safe, unbounded FIFO queue.
// Push never blocks, and consumers may either poll with [Queue.Pop] or wait for a value with [Queue.PopWait].
type Queue[T any] struct {
	mux    sync.Mutex
	values []T
	// signal is replaced each time it's closed, so every waiter observes exactly one wake-up per push.
	signal chan struct{}
}

func NewQueue[T any](initialBuffer ...int) *Queue[T] {
	q := &Queue[T]{signal: make(chan struct{})}
	if len(initialBuffer) > 0 && initialBuffer[0] > 0 {
		q.values = make([]T, 0, initialBuffer[0])
	}
	return q
}

// Len gets the length of the Queue
func (q *Queue[T]) Len() int {
	q.mux.Lock()
	defer q.mux.Unlock()
	return len(q.values)
}

// Push will push an item to the tail of the Queue, waking any goroutine blocked in [Queue.PopWait].
func (q *Queue[T]) Push(val T) {
	q.mux.Lock()
	defer q.mux.Unlock()
	q.values = append(q.values, val)
	if q.signal != nil {
		close(q.signal)
	}
	q.signal = make(chan struct{})
}

// Pop will pop an item from the head of the Queue.
// False will be returned if the Queue is empty.
func (q *Queue[T]) Pop() (T, bool) {
	q.mux.Lock()
	defer q.mux.Unlock()
	val, ok, _ := q.pop()
	return val, ok
}

// pop must be called with the lock held.
// The returned channel is closed on the next push, and is only meaningful when the queue was empty.
func (q *Queue[T]) pop() (T, bool, <-chan struct{}) {
	if len(q.values) == 0 {
		if q.signal == nil {
			q.signal = make(chan struct{})
		}
		var mt T
		return mt, false, q.signal
	}
	val := q.values[0]
	var mt T
	q.values[0] = mt
	q.values = q.values[1:]
	if len(q.values) == 0 {
		// Let the backing array be collected once fully drained.
		q.values = nil
	}
	return val, true, nil
}

// PopWait will pop an item from the head of the Queue, waiting until one is pushed or the context is done.
// The context error is returned if no value became available in time.
func (q *Queue[T]) PopWait(ctx context.Context) (T, error) {
	for {
		q.mux.Lock()
		val, ok, signal := q.pop()
		q.mux.Unlock()
		if ok {
			return val, nil
		}
		select {
		case <-ctx.Done():
			var mt T
			return mt, ctx.Err()
		case <-signal:
			// Something was pushed, try again.
		}
	}
}

// All returns an iterator that pops values until the Queue is empty, or iteration is stopped.
// Values pushed while iterating will be included.
func (q *Queue[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			val, ok := q.Pop()
			if !ok {
				return
			}
			if !yield(val) {
				return
			}
		}
	}
}
