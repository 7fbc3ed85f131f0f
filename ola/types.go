package ola

import (
	"fmt"
	"strings"
)

// UniverseSize is the number of channels in a DMX universe.
const UniverseSize = 512

// MergeMode determines how olad combines multiple sources for a universe.
type MergeMode int

const (
	HTP MergeMode = iota + 1 // HTP is "highest takes precedence", the olad default.
	LTP                      // LTP is "latest takes precedence".
)

func (m MergeMode) String() string {
	switch m {
	case HTP:
		return "HTP"
	case LTP:
		return "LTP"
	default:
		return fmt.Sprintf("MergeMode(%d)", int(m))
	}
}

// ParseMergeMode parses the name of a [MergeMode], ignoring case.
func ParseMergeMode(s string) (MergeMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HTP":
		return HTP, nil
	case "LTP":
		return LTP, nil
	default:
		return 0, fmt.Errorf("unknown merge mode '%s'", s)
	}
}

// Universe is a DMX universe known to olad.
type Universe struct {
	ID        int
	Name      string
	MergeMode MergeMode
}

func (u Universe) String() string {
	return fmt.Sprintf("%d: %s", u.ID, u.Name)
}

// Port is an input or output on a [Device].
// A port is Active when it's patched to Universe.
type Port struct {
	ID          int
	Universe    int
	Active      bool
	IsOutput    bool
	Description string
	SupportsRDM bool
}

// PatchedTo reports whether the port is currently patched to the given universe.
func (p Port) PatchedTo(universeID int) bool {
	return p.Active && p.Universe == universeID
}

// Device is a piece of hardware (or a virtual device) exposed by an olad plugin.
// Alias is the identifier used when patching ports.
type Device struct {
	ID          int
	Alias       int
	Name        string
	PluginID    int
	InputPorts  []Port
	OutputPorts []Port
}

// Ports returns the input and output ports of the device, inputs first.
// IsOutput is set according to which list each port came from.
func (d Device) Ports() []Port {
	ports := make([]Port, 0, len(d.InputPorts)+len(d.OutputPorts))
	for _, port := range d.InputPorts {
		port.IsOutput = false
		ports = append(ports, port)
	}
	for _, port := range d.OutputPorts {
		port.IsOutput = true
		ports = append(ports, port)
	}
	return ports
}

// PatchedPorts returns the ports currently patched to a universe, inputs first.
func (d Device) PatchedPorts(universeID int) []Port {
	var patched []Port
	for _, port := range d.Ports() {
		if port.PatchedTo(universeID) {
			patched = append(patched, port)
		}
	}
	return patched
}

// RequestState is the outcome of a request made to olad.
type RequestState int

const (
	StateSuccess RequestState = iota
	StateFailed
	StateCancelled
)

func (s RequestState) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("RequestState(%d)", int(s))
	}
}

// RequestStatus is passed to every completion callback.
type RequestStatus struct {
	State   RequestState
	Message string
}

// Succeeded reports whether the request completed successfully.
func (s RequestStatus) Succeeded() bool {
	return s.State == StateSuccess
}

func (s RequestStatus) String() string {
	if len(s.Message) == 0 {
		return s.State.String()
	}
	return s.State.String() + ": " + s.Message
}

// Success returns a successful [RequestStatus].
func Success() RequestStatus {
	return RequestStatus{State: StateSuccess}
}

// Failed returns a failed [RequestStatus] with a formatted message.
func Failed(format string, args ...any) RequestStatus {
	return RequestStatus{State: StateFailed, Message: fmt.Sprintf(format, args...)}
}

// PatchAction selects between patching and unpatching a port.
type PatchAction int

const (
	ActionPatch PatchAction = iota
	ActionUnpatch
)

// RegisterAction selects between registering and unregistering for universe DMX updates.
type RegisterAction int

const (
	ActionRegister RegisterAction = iota
	ActionUnregister
)
