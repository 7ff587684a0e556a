// Package session implements the connection manager: it owns the single live
// transport, the join lifecycle, and the fan-out of decoded wire events to
// whoever subscribed. A Session is created at login and closed at logout;
// there is at most one live transport at a time.
package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"messenger/internal/observability"
	"messenger/internal/protocol"
	"messenger/internal/transport"
)

// State is the connection state of the session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

var (
	ErrSessionClosed = errors.New("session closed")
	ErrNotConnected  = errors.New("session not connected")
)

// Transport is the bidirectional connection the session drives. Satisfied by
// *transport.Client and by fakes in tests.
type Transport interface {
	Connect(ctx context.Context) error
	Send(frame []byte) error
	Close() error
	Frames() <-chan []byte
	Status() <-chan transport.Status
}

// Handler receives decoded inbound events, synchronously with frame arrival.
type Handler func(protocol.Event)

// StateHandler observes connection state transitions.
type StateHandler func(State)

// Session multiplexes one transport across every conversation view and the
// notification feed.
type Session struct {
	transport Transport

	mu        sync.Mutex
	state     State
	userID    int
	closed    bool
	nextSubID int
	subs      map[string]map[int]Handler
	stateSubs map[int]StateHandler
	done      chan struct{}
}

// New builds a session over the given transport.
func New(t Transport) *Session {
	return &Session{
		transport: t,
		subs:      make(map[string]map[int]Handler),
		stateSubs: make(map[int]StateHandler),
		done:      make(chan struct{}),
	}
}

// Connect establishes the transport and announces presence by joining as
// userID. Calling it again while live is a no-op, so view remounts can call
// it freely without opening duplicate transports.
func (s *Session) Connect(ctx context.Context, userID int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return nil
	}
	s.userID = userID
	s.mu.Unlock()

	s.setState(StateConnecting)
	if err := s.transport.Connect(ctx); err != nil {
		s.setState(StateDisconnected)
		return err
	}

	go s.loop()

	if err := s.Emit(&protocol.Join{UserID: userID}); err != nil {
		log.Printf("session join failed: %v", err)
	}
	s.setState(StateConnected)
	observability.PublishSessionEvent(ctx, "connect", map[string]interface{}{"user_id": userID})
	return nil
}

// Disconnect tears the transport down. Accumulated conversation and
// notification state is untouched; only live delivery stops.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	userID := s.userID
	s.mu.Unlock()

	close(s.done)
	err := s.transport.Close()
	s.setState(StateDisconnected)
	observability.PublishSessionEvent(context.Background(), "disconnect", map[string]interface{}{"user_id": userID})
	return err
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UserID returns the id the session joined as.
func (s *Session) UserID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Emit encodes and sends an event upstream. Fire-and-forget: no server
// acknowledgement is awaited. While disconnected it fails with
// ErrNotConnected; while reconnecting the frame is still handed to the
// transport, which reports its own state.
func (s *Session) Emit(e protocol.Event) error {
	s.mu.Lock()
	disconnected := s.state == StateDisconnected
	s.mu.Unlock()
	if disconnected {
		return ErrNotConnected
	}

	frame, err := protocol.Encode(e)
	if err != nil {
		return err
	}
	observability.IncWSEvent(e.EventName(), "out")
	return s.transport.Send(frame)
}

// Subscription is a live event registration. Cancel releases only this
// handler; other subscriptions for the same event keep firing.
type Subscription struct {
	session *Session
	event   string
	id      int
}

// Cancel deregisters the handler. Safe to call more than once.
func (sub *Subscription) Cancel() {
	if sub == nil || sub.session == nil {
		return
	}
	s := sub.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.event == "" {
		delete(s.stateSubs, sub.id)
		return
	}
	if handlers, ok := s.subs[sub.event]; ok {
		delete(handlers, sub.id)
		if len(handlers) == 0 {
			delete(s.subs, sub.event)
		}
	}
}

// On registers a handler for one event name and returns its handle.
func (s *Session) On(event string, h Handler) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	if s.subs[event] == nil {
		s.subs[event] = make(map[int]Handler)
	}
	s.subs[event][id] = h
	return &Subscription{session: s, event: event, id: id}
}

// OnStateChange registers a connection-state observer.
func (s *Session) OnStateChange(h StateHandler) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.stateSubs[id] = h
	return &Subscription{session: s, id: id}
}

func (s *Session) loop() {
	for {
		select {
		case <-s.done:
			return
		case frame, ok := <-s.transport.Frames():
			if !ok {
				return
			}
			s.dispatch(frame)
		case status, ok := <-s.transport.Status():
			if !ok {
				return
			}
			s.handleStatus(status)
		}
	}
}

func (s *Session) dispatch(frame []byte) {
	event, err := protocol.Decode(frame)
	if err != nil {
		// Malformed or unknown events are dropped, never surfaced.
		log.Printf("session dropped inbound frame: %v", err)
		observability.IncWSEvent("invalid", "in")
		return
	}
	observability.IncWSEvent(event.EventName(), "in")

	s.mu.Lock()
	handlers := make([]Handler, 0, len(s.subs[event.EventName()]))
	for _, h := range s.subs[event.EventName()] {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

func (s *Session) handleStatus(status transport.Status) {
	switch {
	case status.Connected && status.Resumed:
		// Server-side room membership does not survive a reconnect; failing
		// to rejoin means silence, so the join is re-emitted every time.
		s.mu.Lock()
		userID := s.userID
		s.mu.Unlock()
		if err := s.Emit(&protocol.Join{UserID: userID}); err != nil {
			log.Printf("session rejoin failed: %v", err)
		}
		s.setState(StateConnected)
		observability.PublishSessionEvent(context.Background(), "reconnect", map[string]interface{}{"user_id": userID})
	case status.Connected:
		s.setState(StateConnected)
	default:
		s.setState(StateConnecting)
		payload := map[string]interface{}{"user_id": s.UserID()}
		if status.Err != nil {
			payload["reason"] = status.Err.Error()
		}
		observability.PublishSessionEvent(context.Background(), "drop", payload)
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	if s.state == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	handlers := make([]StateHandler, 0, len(s.stateSubs))
	for _, h := range s.stateSubs {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	observability.SetConnectionState(int(state))
	for _, h := range handlers {
		h(state)
	}
}
