/*
Package dispatch bridges a single-goroutine olad client to the rest of an application.

A [Dispatcher] owns the only connection to olad.
It runs a worker goroutine that connects, runs the client's reactor, and reconnects after a fixed backoff whenever the connection fails.
Request methods may be called from any goroutine, but they never touch the client directly.
Each request is scheduled onto the reactor, and its completion is pushed to an [event.Queue] as an [event.Event] that calls the request's callback.
The consumer decides when to run these events, so callbacks always run on the consumer's goroutine.

# Lifecycle

The consumer learns of availability changes through two events:
  - The start event, pushed each time a connection is established.
  - The stop event, pushed each time a connection fails to be established, or is lost, or is closed with [Dispatcher.Stop].

No events from a connection are pushed after its stop event.
Connection failures are never returned from request methods. At most, a request returns [ErrNotConnected] when there's no connection to schedule it on.

# Requests

Every request callback is optional.
Requests that yield no completion (a nil callback, or [Dispatcher.Unpatch] of a universe with no patched ports) push no events.
*/
package dispatch
