package dispatch

import (
	"errors"
	"fmt"
	"github.com/saylorsolutions/olaui/ola"
	"log/slog"
	"runtime/debug"
)

var (
	ErrNotConnected     = errors.New("not connected to olad")
	ErrNoClientFactory  = errors.New("no client factory given")
	ErrNoReactorFactory = errors.New("no reactor factory given")
	ErrReactorExited    = errors.New("reactor exited unexpectedly")
)

// PanicError is a panic recovered from a client, reactor or factory.
// Panics are treated as unexpected failures, and the dispatcher will reconnect.
type PanicError struct {
	Value any
	Stack []byte
}

func newPanicError(val any) *PanicError {
	return &PanicError{Value: val, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("recovered panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// logFailure reports a connection failure according to its class.
// Connectivity failures are expected while olad isn't running, anything else is likely a bug.
func logFailure(log *slog.Logger, err error) {
	var panicErr *PanicError
	switch {
	case errors.As(err, &panicErr):
		log.Error("Recovered panic in olad connection", "error", panicErr, "stack", string(panicErr.Stack))
	case ola.IsConnectivity(err):
		log.Warn("olad unavailable", "error", err)
	default:
		log.Error("Unexpected olad connection failure", "error", err)
	}
}
