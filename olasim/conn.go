package olasim

import (
	"github.com/google/uuid"
	"github.com/saylorsolutions/olaui/ola"
	"slices"
	"sync"
)

var (
	_ ola.Client     = (*conn)(nil)
	_ ola.Descriptor = (*conn)(nil)
)

// conn is a client connection to a [Daemon].
// Requests are evaluated against the daemon immediately, but their callbacks are only called from SocketReady.
type conn struct {
	id     string
	daemon *Daemon

	mux      sync.Mutex
	pending  []func()
	readable chan struct{}
	closed   bool
}

func newConn(d *Daemon) *conn {
	return &conn{
		id:       uuid.NewString(),
		daemon:   d,
		readable: make(chan struct{}, 1),
	}
}

func (c *conn) Readable() <-chan struct{} {
	return c.readable
}

func (c *conn) Socket() ola.Descriptor {
	return c
}

// deliver queues a callback to be called from SocketReady.
func (c *conn) deliver(fn func()) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.closed {
		return
	}
	c.pending = append(c.pending, fn)
	select {
	case c.readable <- struct{}{}:
	default:
		// Already readable.
	}
}

func (c *conn) SocketReady() error {
	c.mux.Lock()
	if c.closed {
		c.mux.Unlock()
		return ola.ErrConnectionClosed
	}
	pending := c.pending
	c.pending = nil
	c.mux.Unlock()
	for _, fn := range pending {
		fn()
	}
	return nil
}

// shutdown closes the socket from the daemon side, dropping undelivered responses.
func (c *conn) shutdown() {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.pending = nil
	close(c.readable)
}

func (c *conn) Close() error {
	c.daemon.mux.Lock()
	c.daemon.detach(c)
	c.daemon.mux.Unlock()
	c.shutdown()
	return nil
}

// respond evaluates a request against the daemon, and delivers the result to cb if it isn't nil.
// Requests made on a connection that has been closed are dropped.
func respond[T any](c *conn, eval func(d *Daemon) T, cb func(T)) {
	c.daemon.mux.Lock()
	if _, open := c.daemon.conns[c]; !open {
		c.daemon.mux.Unlock()
		return
	}
	result := eval(c.daemon)
	c.daemon.mux.Unlock()
	if cb == nil {
		return
	}
	c.deliver(func() {
		cb(result)
	})
}

func (c *conn) FetchUniverses(cb ola.UniversesCallback) {
	respond(c, func(d *Daemon) []ola.Universe {
		return d.universeList()
	}, func(universes []ola.Universe) {
		if cb != nil {
			cb(ola.Success(), universes)
		}
	})
}

func (c *conn) FetchDevices(cb ola.DevicesCallback) {
	respond(c, func(d *Daemon) []ola.Device {
		return d.deviceList()
	}, func(devices []ola.Device) {
		if cb != nil {
			cb(ola.Success(), devices)
		}
	})
}

func (c *conn) PatchPort(deviceAlias, port int, isOutput bool, action ola.PatchAction, universeID int, cb ola.StatusCallback) {
	respond(c, func(d *Daemon) ola.RequestStatus {
		return d.patch(deviceAlias, port, isOutput, action, universeID)
	}, cb)
}

func (c *conn) SetUniverseName(universeID int, name string, cb ola.StatusCallback) {
	respond(c, func(d *Daemon) ola.RequestStatus {
		u, ok := d.universes[universeID]
		if !ok {
			return ola.Failed("universe %d doesn't exist", universeID)
		}
		u.info.Name = name
		return ola.Success()
	}, cb)
}

func (c *conn) SetUniverseMergeMode(universeID int, mode ola.MergeMode, cb ola.StatusCallback) {
	respond(c, func(d *Daemon) ola.RequestStatus {
		u, ok := d.universes[universeID]
		if !ok {
			return ola.Failed("universe %d doesn't exist", universeID)
		}
		if mode != ola.HTP && mode != ola.LTP {
			return ola.Failed("invalid merge mode %d", mode)
		}
		u.info.MergeMode = mode
		return ola.Success()
	}, cb)
}

type dmxResult struct {
	status ola.RequestStatus
	data   []byte
}

func (c *conn) FetchDmx(universeID int, cb ola.DmxCallback) {
	respond(c, func(d *Daemon) dmxResult {
		u, ok := d.universes[universeID]
		if !ok {
			return dmxResult{status: ola.Failed("universe %d doesn't exist", universeID)}
		}
		return dmxResult{status: ola.Success(), data: slices.Clone(u.data)}
	}, func(result dmxResult) {
		if cb != nil {
			cb(result.status, universeID, result.data)
		}
	})
}

func (c *conn) RegisterUniverse(universeID int, action ola.RegisterAction, data ola.DataCallback, cb ola.StatusCallback) {
	respond(c, func(d *Daemon) ola.RequestStatus {
		u, ok := d.universes[universeID]
		if !ok {
			return ola.Failed("universe %d doesn't exist", universeID)
		}
		switch action {
		case ola.ActionRegister:
			if data == nil {
				return ola.Failed("no data callback given")
			}
			u.listeners[c] = data
		case ola.ActionUnregister:
			delete(u.listeners, c)
		default:
			return ola.Failed("unknown register action %d", action)
		}
		return ola.Success()
	}, cb)
}

func (c *conn) SendDmx(universeID int, data []byte, cb ola.StatusCallback) {
	respond(c, func(d *Daemon) ola.RequestStatus {
		return d.setDmx(universeID, data)
	}, cb)
}
