package event

import (
	"context"
	"errors"
	"github.com/saylorsolutions/olaui/structures/queue"
	"time"
)

var (
	ErrEmpty = errors.New("event queue is empty")
)

// Sink accepts events.
// A [Queue] is a Sink, and so is anything that gates access to one.
type Sink interface {
	Push(evt Event)
}

var _ Sink = (*Queue)(nil)

// Queue is an unbounded, concurrency-safe FIFO of [Event].
// It's intended to be shared by one producer and one consumer, but is safe for any number of each.
type Queue struct {
	events *queue.Queue[Event]
}

func NewQueue() *Queue {
	return &Queue{events: queue.NewQueue[Event](16)}
}

// Push appends an [Event] to the tail of the Queue.
// This never blocks.
func (q *Queue) Push(evt Event) {
	q.events.Push(evt)
}

// Pop removes and returns the [Event] at the head of the Queue.
//
// If block is false, then ErrEmpty is returned immediately when the Queue is empty.
// If block is true, then Pop waits up to timeout for an Event to be pushed, returning ErrEmpty if none arrives.
// A timeout of 0 doesn't wait at all, and a negative timeout waits indefinitely.
func (q *Queue) Pop(block bool, timeout time.Duration) (Event, error) {
	if !block || timeout == 0 {
		evt, ok := q.events.Pop()
		if !ok {
			return Event{}, ErrEmpty
		}
		return evt, nil
	}
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	evt, err := q.events.PopWait(ctx)
	if err != nil {
		return Event{}, ErrEmpty
	}
	return evt, nil
}

// PopContext removes and returns the [Event] at the head of the Queue, waiting until one is available or ctx is done.
func (q *Queue) PopContext(ctx context.Context) (Event, error) {
	return q.events.PopWait(ctx)
}

// Len returns the number of events waiting in the Queue.
func (q *Queue) Len() int {
	return q.events.Len()
}

// Drain pops every currently available [Event] without blocking, passing each to fn.
// Events pushed while draining are included.
// Draining stops early if fn returns false.
// The number of events passed to fn is returned.
func (q *Queue) Drain(fn func(Event) bool) int {
	var n int
	for evt := range q.events.All() {
		n++
		if !fn(evt) {
			break
		}
	}
	return n
}
