package dispatch

import (
	"context"
	"errors"
	"fmt"
	"github.com/saylorsolutions/olaui/event"
	"github.com/saylorsolutions/olaui/ola"
	"github.com/saylorsolutions/olaui/patterns/retry"
	"github.com/saylorsolutions/olaui/selectserver"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBackoff is the time between connection attempts.
const DefaultBackoff = time.Second

// Dispatcher owns the connection to olad, and relays everything olad sends back to a consumer as events.
// See the package documentation for details.
type Dispatcher struct {
	log        *slog.Logger
	sink       event.Sink
	startEvent event.Event
	stopEvent  event.Event
	newClient  ola.ClientFactory
	newReactor ola.ReactorFactory
	backoff    time.Duration

	state     atomic.Int32
	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}

	mux     sync.Mutex
	session *session
	stopped bool
}

type Option func(d *Dispatcher) error

// WithClientFactory sets how connections to olad are created. This is required.
func WithClientFactory(factory ola.ClientFactory) Option {
	return func(d *Dispatcher) error {
		if factory == nil {
			return ErrNoClientFactory
		}
		d.newClient = factory
		return nil
	}
}

// WithReactorFactory sets how a reactor is created for each connection.
// By default, a [selectserver.SelectServer] is used.
func WithReactorFactory(factory ola.ReactorFactory) Option {
	return func(d *Dispatcher) error {
		if factory == nil {
			return ErrNoReactorFactory
		}
		d.newReactor = factory
		return nil
	}
}

// WithBackoff sets the fixed time between connection attempts, overriding [DefaultBackoff].
func WithBackoff(backoff time.Duration) Option {
	return func(d *Dispatcher) error {
		if backoff < 0 {
			return fmt.Errorf("invalid backoff '%s'", backoff)
		}
		d.backoff = backoff
		return nil
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) error {
		if log != nil {
			d.log = log
		}
		return nil
	}
}

// New creates a [Dispatcher] that pushes events to sink, which is usually an [event.Queue].
// The onStart function is called each time a connection is established, and onStop each time one fails or is lost.
// Both are called by running events from sink, and either may be nil.
//
// The worker isn't started until [Dispatcher.Start] is called.
func New(sink event.Sink, onStart, onStop func(), opts ...Option) (*Dispatcher, error) {
	if sink == nil {
		return nil, errors.New("nil event sink")
	}
	d := &Dispatcher{
		log:     slog.Default(),
		sink:    sink,
		backoff: DefaultBackoff,
		done:    make(chan struct{}),
	}
	if onStart != nil {
		d.startEvent = event.New(func(...any) { onStart() })
	}
	if onStop != nil {
		d.stopEvent = event.New(func(...any) { onStop() })
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	if d.newClient == nil {
		return nil, ErrNoClientFactory
	}
	if d.newReactor == nil {
		d.newReactor = selectserver.Factory(selectserver.WithLogger(d.log))
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d, nil
}

// State returns the current connection state.
func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

func (d *Dispatcher) setState(state State) {
	d.state.Store(int32(state))
}

// Connected reports whether requests can currently be scheduled.
func (d *Dispatcher) Connected() bool {
	d.mux.Lock()
	defer d.mux.Unlock()
	return d.session != nil
}

// Start launches the worker goroutine if it's not started already.
// Cancelling ctx has the same effect as calling [Dispatcher.Stop].
// A Dispatcher cannot be restarted once stopped.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		d.mux.Lock()
		defer d.mux.Unlock()
		if d.stopped {
			close(d.done)
			return
		}
		stopWatching := context.AfterFunc(ctx, d.Stop)
		go func() {
			defer stopWatching()
			d.run()
		}()
	})
}

// Stop requests that the worker disconnects and exits.
// It returns without waiting, use [Dispatcher.Done] or [Dispatcher.AwaitStop] to wait.
// This is safe to call multiple times from any goroutine.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.mux.Lock()
		d.stopped = true
		sess := d.session
		d.mux.Unlock()
		d.cancel()
		if sess != nil {
			sess.reactor.Terminate()
		}
		// Never started, so there's no worker to close done.
		d.startOnce.Do(func() {
			close(d.done)
		})
	})
}

// Done is closed once the worker has exited after [Dispatcher.Stop].
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// AwaitStop calls [Dispatcher.Stop] and waits up to timeout for the worker to exit.
// Returns false if the worker was still running at the deadline.
func (d *Dispatcher) AwaitStop(timeout time.Duration) bool {
	d.Stop()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-d.done:
		return true
	case <-timer.C:
		return false
	}
}

func (d *Dispatcher) stopRequested() bool {
	d.mux.Lock()
	defer d.mux.Unlock()
	return d.stopped
}

func (d *Dispatcher) run() {
	defer close(d.done)
	defer d.setState(StateStopped)
	d.log.Debug("Dispatcher started")
	defer d.log.Debug("Dispatcher stopped")

	settings := retry.Fixed(d.ctx, d.backoff)
	settings.OnRetry = func(attempt int, _ error, delay time.Duration) {
		d.setState(StateReconnecting)
		d.log.Info("Reconnecting to olad", "attempt", attempt, "delay", delay)
	}
	err := retry.WithSettings(settings, func() (bool, error) {
		err := d.connect()
		if d.stopRequested() {
			return false, nil
		}
		if err == nil {
			err = ErrReactorExited
		}
		logFailure(d.log, err)
		return true, err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		d.log.Error("Dispatcher exited unexpectedly", "error", err)
	}
}

// connect establishes a session and runs its reactor until the session ends.
// A stop event is pushed for every failure, but only if the consumer hasn't asked to stop.
func (d *Dispatcher) connect() (err error) {
	d.setState(StateConnecting)
	var (
		reactor ola.Reactor
		client  ola.Client
		sess    *session
	)
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
		if sess != nil {
			d.endSession(sess)
			return
		}
		if reactor != nil {
			reactor.Terminate()
		}
		if client != nil {
			_ = client.Close()
		}
		if err != nil && !d.stopRequested() {
			d.sink.Push(d.stopEvent)
		}
	}()

	reactor, err = d.newReactor()
	if err != nil {
		return fmt.Errorf("create reactor: %w", err)
	}
	client, err = d.newClient()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := reactor.AddReadDescriptor(client.Socket(), client.SocketReady); err != nil {
		return fmt.Errorf("register olad socket: %w", err)
	}

	candidate := newSession(d.sink, client, reactor, d.log)
	if !d.install(candidate) {
		return nil
	}
	sess = candidate
	sess.Push(d.startEvent)
	d.setState(StateRunning)
	sess.log.Info("Connected to olad")
	return reactor.Run()
}

// install makes sess the active session, unless a stop was requested.
func (d *Dispatcher) install(sess *session) bool {
	d.mux.Lock()
	defer d.mux.Unlock()
	if d.stopped {
		return false
	}
	d.session = sess
	return true
}

func (d *Dispatcher) endSession(sess *session) {
	d.mux.Lock()
	if d.session == sess {
		d.session = nil
	}
	d.mux.Unlock()
	sess.reactor.Terminate()
	sess.close(d.stopEvent)
	if err := sess.client.Close(); err != nil {
		sess.log.Debug("Error closing olad client", "error", err)
	}
	sess.log.Info("Disconnected from olad")
}
