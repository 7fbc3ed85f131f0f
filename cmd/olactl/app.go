package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/saylorsolutions/olaui/config"
	"github.com/saylorsolutions/olaui/consumer"
	"github.com/saylorsolutions/olaui/dispatch"
	"github.com/saylorsolutions/olaui/event"
	"github.com/saylorsolutions/olaui/logging"
	"github.com/saylorsolutions/olaui/ola"
	"github.com/saylorsolutions/olaui/olasim"
	"io"
	"log/slog"
	"os"
	"time"
)

const (
	// ConfigEnv names the variable holding the config file path.
	ConfigEnv = config.EnvPrefix + "CONFIG"

	connectTimeout = 10 * time.Second
	stopTimeout    = 5 * time.Second
)

var ErrUnavailable = errors.New("olad is unavailable")

// app holds everything a command needs, and is set up right before a command executes.
type app struct {
	out    io.Writer
	errOut io.Writer
	cfg    *config.Config
	log    *slog.Logger
	closer io.Closer
	daemon *olasim.Daemon
	queue  *event.Queue
	loop   *consumer.Loop
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut}
}

// setup loads configuration, and builds the simulated daemon and consumer loop.
func (a *app) setup(ctx context.Context) (context.Context, error) {
	cfg, err := config.Load(os.Getenv(ConfigEnv))
	if err != nil {
		return ctx, err
	}
	return ctx, a.setupWith(cfg)
}

func (a *app) setupWith(cfg *config.Config) error {
	log, closer, err := logging.New(cfg.Log, a.errOut)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	a.closer = closer
	a.daemon = newDaemon(cfg.Sim, log.With("component", "olasim"))
	a.queue = event.NewQueue()
	a.loop, err = consumer.New(a.queue,
		consumer.WithPollInterval(cfg.PollInterval),
		consumer.WithLogger(log.With("component", "consumer")),
	)
	return err
}

func (a *app) close() {
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

func newDaemon(sim config.Sim, log *slog.Logger) *olasim.Daemon {
	opts := []olasim.Option{olasim.WithLogger(log)}
	for _, u := range sim.Universes {
		opts = append(opts, olasim.WithUniverse(u.ID, u.Name))
	}
	for _, dev := range sim.Devices {
		opts = append(opts, olasim.WithDevice(simDevice(dev)))
	}
	return olasim.New(opts...)
}

func simDevice(dev config.SimDevice) ola.Device {
	device := ola.Device{ID: dev.ID, Alias: dev.Alias, Name: dev.Name}
	for i := 0; i < dev.Inputs; i++ {
		device.InputPorts = append(device.InputPorts, ola.Port{ID: i, Description: fmt.Sprintf("Input %d", i)})
	}
	for i := 0; i < dev.Outputs; i++ {
		port := ola.Port{ID: i, Description: fmt.Sprintf("Output %d", i)}
		if universe, ok := dev.Patch[i]; ok {
			port.Universe = universe
			port.Active = true
		}
		device.OutputPorts = append(device.OutputPorts, port)
	}
	return device
}

// session is handed to a command once olad is connected.
// All of its methods must be called from the consumer loop, which is where command callbacks run.
type session struct {
	*dispatch.Dispatcher
	finish func(err error)
}

// done ends the command with an error, or successfully if err is nil.
func (s *session) done(err error) {
	s.finish(err)
}

// check ends the command if a request couldn't be scheduled or failed, returning true if it did.
func (s *session) check(what string, err error, status ...ola.RequestStatus) bool {
	if err != nil {
		s.finish(fmt.Errorf("%s: %w", what, err))
		return true
	}
	for _, st := range status {
		if !st.Succeeded() {
			s.finish(fmt.Errorf("%s: %s", what, st))
			return true
		}
	}
	return false
}

// run connects to olad and calls onConnect each time a connection is established, until the command finishes or ctx is done.
// The command fails with [ErrUnavailable] if it can't connect in time.
func (a *app) run(ctx context.Context, onConnect func(sess *session)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		result    error
		finished  bool
		connected bool
	)
	finish := func(err error) {
		if !finished {
			finished = true
			result = err
		}
		cancel()
	}
	sess := &session{finish: finish}
	d, err := dispatch.New(a.queue, func() {
		if connected {
			a.log.Info("Reconnected to olad")
		}
		connected = true
		onConnect(sess)
	}, func() {
		if connected && ctx.Err() == nil {
			a.log.Warn("Lost connection to olad")
		}
	},
		dispatch.WithClientFactory(a.daemon.Factory()),
		dispatch.WithBackoff(a.cfg.Backoff),
		dispatch.WithLogger(a.log.With("component", "dispatcher")),
	)
	if err != nil {
		return err
	}
	sess.Dispatcher = d

	if gen := a.cfg.Sim.Generator; gen.Enabled {
		go a.daemon.Generate(ctx, gen.Universe, gen.Interval)
	}
	timeout := time.AfterFunc(connectTimeout, func() {
		a.queue.Push(event.New(func(...any) {
			if !connected {
				finish(ErrUnavailable)
			}
		}))
	})
	defer timeout.Stop()

	d.Start(ctx)
	err = a.loop.Run(ctx)
	if !d.AwaitStop(stopTimeout) {
		a.log.Error("Timed out waiting for the dispatcher to stop")
	}
	a.loop.Drain()
	if result != nil {
		return result
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
