package ola

import (
	"errors"
	"net"
)

var (
	ErrDaemonNotRunning = errors.New("olad is not running")
	ErrConnectionClosed = errors.New("connection to olad closed")
)

// IsConnectivity reports whether err indicates that olad is unreachable or the connection was lost.
// Such errors are expected in normal operation, unlike errors that indicate a bug.
func IsConnectivity(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDaemonNotRunning) || errors.Is(err, ErrConnectionClosed) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

type (
	StatusCallback    = func(status RequestStatus)
	UniversesCallback = func(status RequestStatus, universes []Universe)
	DevicesCallback   = func(status RequestStatus, devices []Device)
	DmxCallback       = func(status RequestStatus, universeID int, data []byte)
	DataCallback      = func(data []byte)
)

// Descriptor is something a [Reactor] can wait on for readability.
// A value is sent on the Readable channel when data is waiting, and the channel is closed on EOF.
type Descriptor interface {
	Readable() <-chan struct{}
}

// Client is an asynchronous olad client.
// Every request method returns immediately, and the callback is called later from [Client.SocketReady].
// Callbacks documented as optional may be nil.
type Client interface {
	// Socket returns the descriptor that becomes readable when responses or updates are waiting.
	Socket() Descriptor
	// SocketReady processes everything waiting on the socket, calling completion callbacks.
	// ErrConnectionClosed (or an error wrapping it) is returned once the connection is lost.
	SocketReady() error
	// Close releases the connection.
	Close() error

	FetchUniverses(cb UniversesCallback)
	FetchDevices(cb DevicesCallback)
	// PatchPort patches or unpatches a port of the device with the given alias. The callback is optional.
	PatchPort(deviceAlias, port int, isOutput bool, action PatchAction, universeID int, cb StatusCallback)
	// SetUniverseName names a universe. The callback is optional.
	SetUniverseName(universeID int, name string, cb StatusCallback)
	// SetUniverseMergeMode changes a universe's merge mode. The callback is optional.
	SetUniverseMergeMode(universeID int, mode MergeMode, cb StatusCallback)
	FetchDmx(universeID int, cb DmxCallback)
	// RegisterUniverse registers or unregisters for updates to a universe's DMX data.
	// While registered, data is called with each new buffer. The callback is optional.
	RegisterUniverse(universeID int, action RegisterAction, data DataCallback, cb StatusCallback)
	// SendDmx sets the DMX data of a universe. The callback is optional.
	SendDmx(universeID int, data []byte, cb StatusCallback)
}

// Reactor is a single goroutine event loop.
// Run blocks the calling goroutine, and every callback the Reactor makes happens on that goroutine.
type Reactor interface {
	// Run processes scheduled tasks and descriptor readiness until Terminate is called, or a readiness handler returns an error.
	// The handler's error is returned.
	Run() error
	// Terminate causes Run to return. Calling Terminate before Run must cause Run to return immediately.
	// Safe to call from any goroutine, and more than once.
	Terminate()
	// Execute schedules task to run on the Run goroutine. Safe to call from any goroutine.
	Execute(task func())
	// AddReadDescriptor calls onReady from the Run goroutine whenever desc is readable.
	AddReadDescriptor(desc Descriptor, onReady func() error) error
}

type (
	ClientFactory  = func() (Client, error)
	ReactorFactory = func() (Reactor, error)
)
