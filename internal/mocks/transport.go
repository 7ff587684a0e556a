package mocks

import (
	"context"
	"sync"

	"messenger/internal/transport"
)

// TransportFake is a channel-driven stand-in for the websocket transport.
// Tests push inbound frames and status transitions and inspect what the
// session sent.
type TransportFake struct {
	ConnectErr error
	SendErr    error

	mu     sync.Mutex
	sent   [][]byte
	closed bool

	frames chan []byte
	status chan transport.Status
}

func NewTransportFake() *TransportFake {
	return &TransportFake{
		frames: make(chan []byte, 16),
		status: make(chan transport.Status, 16),
	}
}

func (f *TransportFake) Connect(ctx context.Context) error { return f.ConnectErr }

func (f *TransportFake) Send(frame []byte) error {
	if f.SendErr != nil {
		return f.SendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, len(frame))
	copy(buf, frame)
	f.sent = append(f.sent, buf)
	return nil
}

func (f *TransportFake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *TransportFake) Frames() <-chan []byte { return f.frames }

func (f *TransportFake) Status() <-chan transport.Status { return f.status }

// PushFrame delivers an inbound frame as if read off the wire.
func (f *TransportFake) PushFrame(frame []byte) { f.frames <- frame }

// PushStatus delivers a transport state transition.
func (f *TransportFake) PushStatus(s transport.Status) { f.status <- s }

// Sent returns a snapshot of every frame sent so far.
func (f *TransportFake) Sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

// Closed reports whether Close was called.
func (f *TransportFake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
