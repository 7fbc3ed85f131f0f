/*
Package consumer runs queued events on a single goroutine.

A [Loop] wakes at a fixed poll interval, runs every event waiting in an [event.Queue] without blocking, and then runs any periodic tasks that are due.
Nothing that happens in an event can stop the loop: a panicking event is recovered, logged, and reported to the [ErrorHandler] if one is set.
*/
package consumer

import (
	"context"
	"errors"
	"fmt"
	"github.com/saylorsolutions/olaui/event"
	"log/slog"
	"runtime/debug"
	"time"
)

// DefaultPollInterval is how often queued events are run.
const DefaultPollInterval = 50 * time.Millisecond

var ErrEventPanic = errors.New("event panicked")

// ErrorHandler is called on the loop's goroutine for each failed event or task.
type ErrorHandler func(err error)

type periodic struct {
	interval time.Duration
	next     time.Time
	task     func()
}

// Loop is the consumer side of an [event.Queue].
// A Loop is not safe for concurrent use, all methods should be called from the goroutine running it.
type Loop struct {
	log      *slog.Logger
	queue    *event.Queue
	interval time.Duration
	onError  ErrorHandler
	tasks    []*periodic
}

type Option func(l *Loop) error

// WithPollInterval overrides [DefaultPollInterval].
func WithPollInterval(interval time.Duration) Option {
	return func(l *Loop) error {
		if interval <= 0 {
			return fmt.Errorf("invalid poll interval '%s'", interval)
		}
		l.interval = interval
		return nil
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(l *Loop) error {
		if log != nil {
			l.log = log
		}
		return nil
	}
}

// WithErrorHandler sets a function to receive errors from events and tasks, in addition to them being logged.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(l *Loop) error {
		l.onError = handler
		return nil
	}
}

func New(queue *event.Queue, opts ...Option) (*Loop, error) {
	if queue == nil {
		return nil, errors.New("nil event queue")
	}
	l := &Loop{
		log:      slog.Default(),
		queue:    queue,
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Every schedules task to run on the loop's goroutine about once per interval, starting one interval from now.
// The interval is rounded up to the poll interval.
func (l *Loop) Every(interval time.Duration, task func()) {
	if task == nil || interval <= 0 {
		return
	}
	l.tasks = append(l.tasks, &periodic{
		interval: interval,
		next:     time.Now().Add(interval),
		task:     task,
	})
}

// Drain runs all events currently queued without waiting for more, returning how many were run.
// Events pushed while draining are run as well.
func (l *Loop) Drain() int {
	return l.queue.Drain(func(evt event.Event) bool {
		l.guard("event", evt.Run)
		return true
	})
}

// Tick drains the queue, and then runs periodic tasks that are due.
func (l *Loop) Tick(now time.Time) {
	l.Drain()
	for _, p := range l.tasks {
		if now.Before(p.next) {
			continue
		}
		p.next = now.Add(p.interval)
		l.guard("task", p.task)
	}
}

// Run calls [Loop.Tick] every poll interval until ctx is done.
// Events still queued when ctx is done are run before returning.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			l.Drain()
			return ctx.Err()
		case now := <-ticker.C:
			l.Tick(now)
		}
	}
}

func (l *Loop) guard(kind string, fn func()) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := fmt.Errorf("%w: %v", ErrEventPanic, r)
		l.log.Error("Recovered panic in consumer "+kind, "error", err, "stack", string(debug.Stack()))
		if l.onError != nil {
			l.onError(err)
		}
	}()
	fn()
}
