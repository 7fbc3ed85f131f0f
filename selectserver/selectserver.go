/*
Package selectserver provides a single goroutine reactor that satisfies [ola.Reactor].

Work reaches the reactor in two ways:
  - Tasks scheduled with [SelectServer.Execute] from any goroutine.
  - Readiness of descriptors registered with [SelectServer.AddReadDescriptor].

Both are handled on the goroutine that called [SelectServer.Run], one at a time, in the order they were observed.
Pending tasks are always run before waiting for readiness, so a task scheduled before data arrives is handled first.
*/
package selectserver

import (
	"errors"
	"fmt"
	"github.com/eapache/queue"
	"github.com/saylorsolutions/olaui/ola"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	ErrAlreadyRunning = errors.New("select server is already running")
	ErrTerminated     = errors.New("select server has been terminated")
)

var _ ola.Reactor = (*SelectServer)(nil)

type readiness struct {
	desc    ola.Descriptor
	onReady func() error
	eof     bool
}

// SelectServer is a reactor that runs every task and readiness handler on the goroutine that called [SelectServer.Run].
// A SelectServer may only be run once.
type SelectServer struct {
	log *slog.Logger

	mux   sync.Mutex
	tasks *queue.Queue // func()
	wake  chan struct{}

	ready     chan readiness
	terminate chan struct{}
	doTerm    sync.Once
	running   atomic.Bool
	relays    sync.WaitGroup
}

type Option func(s *SelectServer)

// WithLogger sets the logger used to report reactor activity.
func WithLogger(log *slog.Logger) Option {
	return func(s *SelectServer) {
		if log != nil {
			s.log = log
		}
	}
}

func New(opts ...Option) *SelectServer {
	s := &SelectServer{
		log:       slog.Default(),
		tasks:     queue.New(),
		wake:      make(chan struct{}, 1),
		ready:     make(chan readiness),
		terminate: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Factory is an [ola.ReactorFactory] creating a new [SelectServer] with the given options.
func Factory(opts ...Option) ola.ReactorFactory {
	return func() (ola.Reactor, error) {
		return New(opts...), nil
	}
}

// Execute schedules task to run on the [SelectServer.Run] goroutine.
// Tasks scheduled after termination are discarded.
func (s *SelectServer) Execute(task func()) {
	if task == nil {
		return
	}
	select {
	case <-s.terminate:
		return
	default:
	}
	s.mux.Lock()
	s.tasks.Add(task)
	s.mux.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
		// Already signalled.
	}
}

// Pending returns the number of tasks waiting to run.
func (s *SelectServer) Pending() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.tasks.Length()
}

// AddReadDescriptor will call onReady from the [SelectServer.Run] goroutine each time desc signals readability.
// When the Readable channel is closed, onReady is called one last time so it can observe EOF.
func (s *SelectServer) AddReadDescriptor(desc ola.Descriptor, onReady func() error) error {
	if desc == nil || onReady == nil {
		return fmt.Errorf("nil descriptor or handler")
	}
	select {
	case <-s.terminate:
		return ErrTerminated
	default:
	}
	s.relays.Add(1)
	go s.relay(desc, onReady)
	return nil
}

// relay forwards readiness to the Run goroutine, so handlers never run concurrently with tasks.
func (s *SelectServer) relay(desc ola.Descriptor, onReady func() error) {
	defer s.relays.Done()
	readable := desc.Readable()
	for {
		select {
		case <-s.terminate:
			return
		case _, more := <-readable:
			select {
			case s.ready <- readiness{desc: desc, onReady: onReady, eof: !more}:
			case <-s.terminate:
				return
			}
			if !more {
				return
			}
		}
	}
}

// Run processes tasks and readiness until [SelectServer.Terminate] is called, or a readiness handler returns an error.
// The handler's error is returned, and nil is returned after termination.
func (s *SelectServer) Run() error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	s.log.Debug("Select server running")
	defer s.log.Debug("Select server stopped")
	for {
		select {
		case <-s.terminate:
			return nil
		default:
		}
		if s.runTasks() {
			return nil
		}
		select {
		case <-s.terminate:
			return nil
		case <-s.wake:
			// Tasks were scheduled, loop around to run them.
		case r := <-s.ready:
			if err := r.onReady(); err != nil {
				return err
			}
			if r.eof {
				s.log.Debug("Descriptor reached EOF")
			}
		}
	}
}

// runTasks runs all pending tasks, returning true if termination was requested by one of them.
func (s *SelectServer) runTasks() bool {
	for {
		s.mux.Lock()
		if s.tasks.Length() == 0 {
			s.mux.Unlock()
			return false
		}
		task := s.tasks.Remove().(func())
		s.mux.Unlock()
		task()
		select {
		case <-s.terminate:
			return true
		default:
		}
	}
}

// Terminate causes [SelectServer.Run] to return, and stops relaying descriptor readiness.
// Calling Terminate before Run causes Run to return immediately.
// This is safe to call multiple times from multiple goroutines.
func (s *SelectServer) Terminate() {
	s.doTerm.Do(func() {
		close(s.terminate)
	})
}

// Await waits for descriptor relays to exit after [SelectServer.Terminate].
func (s *SelectServer) Await() {
	s.relays.Wait()
}
