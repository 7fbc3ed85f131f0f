// Package signalx ties context cancellation to OS signals.
package signalx

import (
	"context"
	"os"
	"os/signal"
	"sync"
)

// ExitFunc is called when a second signal arrives before shutdown completes.
var ExitFunc = func() { os.Exit(1) }

// ShutdownContext returns a context that's cancelled when any of the given signals are received.
// A second signal calls [ExitFunc], for when a graceful shutdown hangs.
// The returned stop function cancels the context and stops listening for signals.
func ShutdownContext(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	if len(signals) == 0 {
		panic("no signals passed to ShutdownContext")
	}
	ctx, cancel := context.WithCancel(parent)
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, signals...)
	released := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancel()
		case <-released:
			return
		}
		select {
		case <-sigs:
			ExitFunc()
		case <-released:
		}
	}()
	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(sigs)
			close(released)
			cancel()
		})
	}
}
