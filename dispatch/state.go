package dispatch

import "fmt"

// State is the connection state of a [Dispatcher].
type State int32

const (
	StateStopped      State = iota // StateStopped means the worker isn't running.
	StateConnecting                // StateConnecting means a connection attempt is in progress.
	StateRunning                   // StateRunning means a connection is established, and requests are accepted.
	StateReconnecting              // StateReconnecting means the worker is waiting to try again after a failure.
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateConnecting:
		return "connecting"
	case StateRunning:
		return "running"
	case StateReconnecting:
		return "reconnecting"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
