package dispatch

import (
	"github.com/google/uuid"
	"github.com/saylorsolutions/olaui/event"
	"github.com/saylorsolutions/olaui/ola"
	"log/slog"
	"sync"
)

var _ event.Sink = (*session)(nil)

// session is a single connection to olad, and the reactor that drives it.
// It gates the event sink so that nothing from this connection is pushed after its stop event.
type session struct {
	id      string
	client  ola.Client
	reactor ola.Reactor
	log     *slog.Logger

	mux    sync.Mutex
	sink   event.Sink
	closed bool
}

func newSession(sink event.Sink, client ola.Client, reactor ola.Reactor, log *slog.Logger) *session {
	id := uuid.NewString()
	return &session{
		id:      id,
		client:  client,
		reactor: reactor,
		sink:    sink,
		log:     log.With("session", id),
	}
}

func (s *session) Push(evt event.Event) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.closed {
		s.log.Debug("Dropped event from closed session")
		return
	}
	s.sink.Push(evt)
}

// close pushes the final event, and drops everything pushed afterward.
func (s *session) close(final event.Event) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.sink.Push(final)
}
