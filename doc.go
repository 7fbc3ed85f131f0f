/*
Package olaui is the plumbing between a lighting control front end and olad, the Open Lighting Architecture daemon.

The heart of the module is [github.com/saylorsolutions/olaui/dispatch], a background worker that owns the connection to olad.
Every request is serialized onto a single goroutine, and every reply, DMX update and lost connection comes back as an event on a queue that the front end drains on its own goroutine.

Supporting packages:
  - event: the queue, and adapters that turn client callbacks into queued events.
  - ola: values exchanged with olad, and the client and reactor interfaces the dispatcher is written against.
  - selectserver: a single-goroutine reactor.
  - olasim: an in-process olad for tests and for olactl.
  - consumer: the polling loop that runs queued events.
  - config, logging, cli and signalx: what cmd/olactl is built from.
*/
package olaui
