package dispatch

import (
	"context"
	"errors"
	"github.com/saylorsolutions/olaui/event"
	"github.com/saylorsolutions/olaui/ola"
	"github.com/stretchr/testify/require"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

const (
	testBackoff = 10 * time.Millisecond
	testTimeout = 2 * time.Second
)

var errTestRefused = errors.New("connection refused")

type patchCall struct {
	alias      int
	port       int
	isOutput   bool
	action     ola.PatchAction
	universeID int
}

// fakeClient answers requests immediately with canned values, calling callbacks from the goroutine that made the request.
type fakeClient struct {
	mux       sync.Mutex
	universes []ola.Universe
	devices   []ola.Device
	patches   []patchCall
	names     map[int]string
	sent      map[int][]byte
	listeners map[int]ola.DataCallback
	held      []ola.UniversesCallback
	holdReply bool
	socket    chan struct{}
	dropped   bool
	closed    bool

	// devicesStatus is reported by FetchDevices, with no devices when it's a failure.
	devicesStatus ola.RequestStatus
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		universes: []ola.Universe{{ID: 123, Name: "Test Universe", MergeMode: ola.LTP}},
		devices:   []ola.Device{{ID: 123, Alias: 1, Name: "Test Device"}},
		names:     map[int]string{},
		sent:      map[int][]byte{},
		listeners: map[int]ola.DataCallback{},
		socket:    make(chan struct{}),
	}
}

func (c *fakeClient) Readable() <-chan struct{} {
	return c.socket
}

func (c *fakeClient) Socket() ola.Descriptor {
	return c
}

func (c *fakeClient) SocketReady() error {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.dropped {
		return ola.ErrConnectionClosed
	}
	return nil
}

// drop simulates olad closing the connection.
func (c *fakeClient) drop() {
	c.mux.Lock()
	defer c.mux.Unlock()
	if !c.dropped {
		c.dropped = true
		close(c.socket)
	}
}

func (c *fakeClient) Close() error {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) isClosed() bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.closed
}

func (c *fakeClient) FetchUniverses(cb ola.UniversesCallback) {
	c.mux.Lock()
	if c.holdReply {
		c.held = append(c.held, cb)
		c.mux.Unlock()
		return
	}
	universes := c.universes
	c.mux.Unlock()
	cb(ola.Success(), universes)
}

func (c *fakeClient) heldCount() int {
	c.mux.Lock()
	defer c.mux.Unlock()
	return len(c.held)
}

// releaseHeld replies to held FetchUniverses requests from the calling goroutine.
func (c *fakeClient) releaseHeld() {
	c.mux.Lock()
	held := c.held
	c.held = nil
	universes := c.universes
	c.mux.Unlock()
	for _, cb := range held {
		cb(ola.Success(), universes)
	}
}

func (c *fakeClient) FetchDevices(cb ola.DevicesCallback) {
	c.mux.Lock()
	devices, status := c.devices, c.devicesStatus
	c.mux.Unlock()
	if !status.Succeeded() {
		cb(status, nil)
		return
	}
	cb(status, devices)
}

func (c *fakeClient) PatchPort(deviceAlias, port int, isOutput bool, action ola.PatchAction, universeID int, cb ola.StatusCallback) {
	c.mux.Lock()
	c.patches = append(c.patches, patchCall{alias: deviceAlias, port: port, isOutput: isOutput, action: action, universeID: universeID})
	c.mux.Unlock()
	if cb != nil {
		cb(ola.Success())
	}
}

func (c *fakeClient) recordedPatches() []patchCall {
	c.mux.Lock()
	defer c.mux.Unlock()
	return append([]patchCall(nil), c.patches...)
}

func (c *fakeClient) SetUniverseName(universeID int, name string, cb ola.StatusCallback) {
	c.mux.Lock()
	c.names[universeID] = name
	c.mux.Unlock()
	if cb != nil {
		cb(ola.Success())
	}
}

func (c *fakeClient) universeName(universeID int) string {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.names[universeID]
}

func (c *fakeClient) SetUniverseMergeMode(_ int, _ ola.MergeMode, cb ola.StatusCallback) {
	if cb != nil {
		cb(ola.Success())
	}
}

func (c *fakeClient) FetchDmx(universeID int, cb ola.DmxCallback) {
	cb(ola.Success(), universeID, []byte{1, 2, 3})
}

func (c *fakeClient) RegisterUniverse(universeID int, action ola.RegisterAction, data ola.DataCallback, cb ola.StatusCallback) {
	c.mux.Lock()
	if action == ola.ActionRegister {
		c.listeners[universeID] = data
	} else {
		delete(c.listeners, universeID)
	}
	c.mux.Unlock()
	if cb != nil {
		cb(ola.Success())
	}
}

func (c *fakeClient) listener(universeID int) ola.DataCallback {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.listeners[universeID]
}

func (c *fakeClient) SendDmx(universeID int, data []byte, cb ola.StatusCallback) {
	c.mux.Lock()
	c.sent[universeID] = data
	c.mux.Unlock()
	if cb != nil {
		cb(ola.Success())
	}
}

func (c *fakeClient) sentData(universeID int) []byte {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.sent[universeID]
}

// fakeConnector hands out clients, optionally failing or panicking on specific attempts.
type fakeConnector struct {
	mux      sync.Mutex
	attempts int
	clients  []*fakeClient
	failOn   map[int]error
	panicOn  map[int]bool
	setup    func(c *fakeClient)
}

func (f *fakeConnector) connect() (ola.Client, error) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.attempts++
	if f.panicOn[f.attempts] {
		panic("client construction bug")
	}
	if err := f.failOn[f.attempts]; err != nil {
		return nil, err
	}
	c := newFakeClient()
	if f.setup != nil {
		f.setup(c)
	}
	f.clients = append(f.clients, c)
	return c, nil
}

func (f *fakeConnector) attemptCount() int {
	f.mux.Lock()
	defer f.mux.Unlock()
	return f.attempts
}

func (f *fakeConnector) client(i int) *fakeClient {
	f.mux.Lock()
	defer f.mux.Unlock()
	if i >= len(f.clients) {
		return nil
	}
	return f.clients[i]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// harness plays the part of the consumer, running events on the test goroutine.
type harness struct {
	t          *testing.T
	queue      *event.Queue
	dispatcher *Dispatcher
	lifecycle  []string
	ran        int
}

func newHarness(t *testing.T, factory ola.ClientFactory, opts ...Option) *harness {
	t.Helper()
	h := &harness{t: t, queue: event.NewQueue()}
	opts = append([]Option{
		WithClientFactory(factory),
		WithBackoff(testBackoff),
		WithLogger(testLogger()),
	}, opts...)
	d, err := New(h.queue, func() {
		h.lifecycle = append(h.lifecycle, "start")
	}, func() {
		h.lifecycle = append(h.lifecycle, "stop")
	}, opts...)
	require.NoError(t, err)
	h.dispatcher = d
	t.Cleanup(func() {
		require.True(t, d.AwaitStop(testTimeout), "Dispatcher should stop")
	})
	return h
}

func (h *harness) start() *harness {
	h.dispatcher.Start(context.Background())
	return h
}

func (h *harness) count(name string) int {
	var n int
	for _, val := range h.lifecycle {
		if val == name {
			n++
		}
	}
	return n
}

// drainUntil runs events until cond is true, failing the test if that doesn't happen in time.
func (h *harness) drainUntil(cond func() bool, msg string) {
	h.t.Helper()
	deadline := time.Now().Add(testTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			h.t.Fatalf("Timed out waiting: %s", msg)
		}
		evt, err := h.queue.Pop(true, 10*time.Millisecond)
		if err != nil {
			continue
		}
		h.ran++
		evt.Run()
	}
}

// drainFor runs every event that arrives within the given duration.
func (h *harness) drainFor(dur time.Duration) {
	deadline := time.Now().Add(dur)
	for time.Now().Before(deadline) {
		evt, err := h.queue.Pop(true, 5*time.Millisecond)
		if err != nil {
			continue
		}
		h.ran++
		evt.Run()
	}
}

func (h *harness) awaitStarts(n int) {
	h.t.Helper()
	h.drainUntil(func() bool {
		return h.count("start") >= n
	}, "start event")
}
