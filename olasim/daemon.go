/*
Package olasim is an in-process stand-in for olad.

A [Daemon] holds universes, devices and DMX buffers, and hands out connections implementing [ola.Client].
Responses are never delivered inline: each request queues its completion on the connection, and the connection's socket becomes readable.
Completions are called when the owner of the connection calls [ola.Client.SocketReady], which mirrors how a real client is driven by its reactor.

The semantics follow olad where it matters to a client:
  - Patching a port to a universe that doesn't exist creates it.
  - Unpatching the last port of a universe created by patching removes it, unless a client is registered for its data.
  - Requests for a universe that doesn't exist fail.
*/
package olasim

import (
	"fmt"
	"github.com/saylorsolutions/olaui/ola"
	"log/slog"
	"maps"
	"slices"
	"sync"
)

type universe struct {
	info      ola.Universe
	data      []byte
	listeners map[*conn]ola.DataCallback
	// pinned universes were added explicitly, and are never removed for being unused.
	pinned bool
}

// Daemon is a simulated olad.
type Daemon struct {
	log *slog.Logger

	mux       sync.Mutex
	running   bool
	universes map[int]*universe
	devices   map[int]*ola.Device // keyed by alias
	conns     map[*conn]struct{}
}

type Option func(d *Daemon)

func WithLogger(log *slog.Logger) Option {
	return func(d *Daemon) {
		if log != nil {
			d.log = log
		}
	}
}

// WithUniverse adds a universe to the [Daemon] before it starts.
func WithUniverse(id int, name string) Option {
	return func(d *Daemon) {
		d.addUniverse(ola.Universe{ID: id, Name: name, MergeMode: ola.HTP}, true)
	}
}

// WithDevice adds a device to the [Daemon] before it starts.
func WithDevice(dev ola.Device) Option {
	return func(d *Daemon) {
		d.addDevice(dev)
	}
}

// Stopped creates the [Daemon] in the stopped state, so connections are refused until [Daemon.Start] is called.
func Stopped() Option {
	return func(d *Daemon) {
		d.running = false
	}
}

// New creates a running [Daemon].
func New(opts ...Option) *Daemon {
	d := &Daemon{
		log:       slog.Default(),
		running:   true,
		universes: map[int]*universe{},
		devices:   map[int]*ola.Device{},
		conns:     map[*conn]struct{}{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start allows new connections.
func (d *Daemon) Start() {
	d.mux.Lock()
	defer d.mux.Unlock()
	d.running = true
}

// Stop refuses new connections and closes existing ones.
// Universe and device state is retained, as if olad was restarted with the same configuration.
func (d *Daemon) Stop() {
	d.mux.Lock()
	defer d.mux.Unlock()
	d.running = false
	for c := range d.conns {
		d.detach(c)
		c.shutdown()
	}
}

// Running reports whether the [Daemon] accepts connections.
func (d *Daemon) Running() bool {
	d.mux.Lock()
	defer d.mux.Unlock()
	return d.running
}

// Connections returns the number of open connections.
func (d *Daemon) Connections() int {
	d.mux.Lock()
	defer d.mux.Unlock()
	return len(d.conns)
}

// Connect opens a new connection, or returns [ola.ErrDaemonNotRunning].
func (d *Daemon) Connect() (ola.Client, error) {
	d.mux.Lock()
	defer d.mux.Unlock()
	if !d.running {
		return nil, ola.ErrDaemonNotRunning
	}
	c := newConn(d)
	d.conns[c] = struct{}{}
	d.log.Debug("Client connected", "conn", c.id)
	return c, nil
}

// Factory returns an [ola.ClientFactory] that connects to this [Daemon].
func (d *Daemon) Factory() ola.ClientFactory {
	return d.Connect
}

// AddUniverse creates or replaces a universe.
func (d *Daemon) AddUniverse(u ola.Universe) {
	d.mux.Lock()
	defer d.mux.Unlock()
	d.addUniverse(u, true)
}

func (d *Daemon) addUniverse(u ola.Universe, pinned bool) {
	if u.MergeMode == 0 {
		u.MergeMode = ola.HTP
	}
	if existing, ok := d.universes[u.ID]; ok {
		existing.info = u
		existing.pinned = existing.pinned || pinned
		return
	}
	d.universes[u.ID] = &universe{
		info:      u,
		data:      make([]byte, ola.UniverseSize),
		listeners: map[*conn]ola.DataCallback{},
		pinned:    pinned,
	}
}

// AddDevice creates or replaces a device, keyed by its alias.
// Universes referenced by active ports are created if needed.
func (d *Daemon) AddDevice(dev ola.Device) {
	d.mux.Lock()
	defer d.mux.Unlock()
	d.addDevice(dev)
}

func (d *Daemon) addDevice(dev ola.Device) {
	dev = copyDevice(dev)
	for i := range dev.OutputPorts {
		dev.OutputPorts[i].IsOutput = true
	}
	for i := range dev.InputPorts {
		dev.InputPorts[i].IsOutput = false
	}
	for _, port := range dev.Ports() {
		if port.Active {
			d.ensureUniverse(port.Universe)
		}
	}
	d.devices[dev.Alias] = &dev
}

// Universes returns a snapshot of all universes, ordered by ID.
func (d *Daemon) Universes() []ola.Universe {
	d.mux.Lock()
	defer d.mux.Unlock()
	return d.universeList()
}

// Devices returns a snapshot of all devices, ordered by alias.
func (d *Daemon) Devices() []ola.Device {
	d.mux.Lock()
	defer d.mux.Unlock()
	return d.deviceList()
}

// Dmx returns a copy of the DMX data for a universe.
func (d *Daemon) Dmx(universeID int) ([]byte, bool) {
	d.mux.Lock()
	defer d.mux.Unlock()
	u, ok := d.universes[universeID]
	if !ok {
		return nil, false
	}
	return slices.Clone(u.data), true
}

// InjectDmx sets a universe's DMX data as if it had been received by an input port, notifying registered clients.
func (d *Daemon) InjectDmx(universeID int, data []byte) error {
	d.mux.Lock()
	defer d.mux.Unlock()
	status := d.setDmx(universeID, data)
	if !status.Succeeded() {
		return fmt.Errorf("inject DMX: %s", status.Message)
	}
	return nil
}

func (d *Daemon) universeList() []ola.Universe {
	ids := slices.Sorted(maps.Keys(d.universes))
	list := make([]ola.Universe, len(ids))
	for i, id := range ids {
		list[i] = d.universes[id].info
	}
	return list
}

func (d *Daemon) deviceList() []ola.Device {
	aliases := slices.Sorted(maps.Keys(d.devices))
	list := make([]ola.Device, len(aliases))
	for i, alias := range aliases {
		list[i] = copyDevice(*d.devices[alias])
	}
	return list
}

func (d *Daemon) ensureUniverse(id int) *universe {
	if u, ok := d.universes[id]; ok {
		return u
	}
	d.addUniverse(ola.Universe{ID: id, Name: fmt.Sprintf("Universe %d", id)}, false)
	d.log.Debug("Universe created", "universe", id)
	return d.universes[id]
}

// removeIfUnused deletes a universe that was created by patching, and has no patched ports or registered clients.
func (d *Daemon) removeIfUnused(id int) {
	u, ok := d.universes[id]
	if !ok || u.pinned || len(u.listeners) > 0 {
		return
	}
	for _, dev := range d.devices {
		for _, port := range dev.Ports() {
			if port.PatchedTo(id) {
				return
			}
		}
	}
	delete(d.universes, id)
	d.log.Debug("Universe removed", "universe", id)
}

func (d *Daemon) patch(alias, portID int, isOutput bool, action ola.PatchAction, universeID int) ola.RequestStatus {
	dev, ok := d.devices[alias]
	if !ok {
		return ola.Failed("no device with alias %d", alias)
	}
	ports := dev.InputPorts
	if isOutput {
		ports = dev.OutputPorts
	}
	idx := slices.IndexFunc(ports, func(p ola.Port) bool {
		return p.ID == portID
	})
	if idx < 0 {
		return ola.Failed("device %d has no such port %d", alias, portID)
	}
	port := &ports[idx]
	switch action {
	case ola.ActionPatch:
		previous, wasActive := port.Universe, port.Active
		d.ensureUniverse(universeID)
		port.Universe = universeID
		port.Active = true
		if wasActive && previous != universeID {
			d.removeIfUnused(previous)
		}
	case ola.ActionUnpatch:
		if !port.Active {
			return ola.Failed("port %d of device %d is not patched", portID, alias)
		}
		previous := port.Universe
		port.Universe = 0
		port.Active = false
		d.removeIfUnused(previous)
	default:
		return ola.Failed("unknown patch action %d", action)
	}
	return ola.Success()
}

func (d *Daemon) setDmx(universeID int, data []byte) ola.RequestStatus {
	u, ok := d.universes[universeID]
	if !ok {
		return ola.Failed("universe %d doesn't exist", universeID)
	}
	if len(data) > ola.UniverseSize {
		return ola.Failed("%d channels exceeds the universe size of %d", len(data), ola.UniverseSize)
	}
	u.data = slices.Clone(data)
	for c, listener := range u.listeners {
		update := slices.Clone(u.data)
		c.deliver(func() {
			listener(update)
		})
	}
	return ola.Success()
}

func (d *Daemon) detach(c *conn) {
	delete(d.conns, c)
	for id, u := range d.universes {
		if _, ok := u.listeners[c]; ok {
			delete(u.listeners, c)
			d.removeIfUnused(id)
		}
	}
	d.log.Debug("Client disconnected", "conn", c.id)
}

func copyDevice(dev ola.Device) ola.Device {
	dev.InputPorts = slices.Clone(dev.InputPorts)
	dev.OutputPorts = slices.Clone(dev.OutputPorts)
	return dev
}
