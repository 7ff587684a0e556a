// Package transport maintains the persistent websocket connection to the
// messaging server. It owns dialing, the read loop, and automatic
// reconnection; everything above it deals in raw frames.
package transport

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"messenger/internal/observability"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport closed")

const writeWait = 10 * time.Second

// Status reports a transport state transition.
type Status struct {
	Connected bool
	// Resumed is set when the connection was re-established after a drop, as
	// opposed to the initial connect. Server-side room membership is lost
	// across reconnects, so consumers must re-join.
	Resumed bool
	Err     error
}

// Client is a websocket transport with automatic reconnection.
type Client struct {
	url    string
	dialer *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	connID string
	closed bool

	frames chan []byte
	status chan Status
	done   chan struct{}
}

// New builds a transport for the given websocket URL. Connect must be called
// before frames are delivered.
func New(url string) *Client {
	return &Client{
		url:    url,
		dialer: websocket.DefaultDialer,
		frames: make(chan []byte, 64),
		status: make(chan Status, 8),
		done:   make(chan struct{}),
	}
}

// Frames delivers inbound frames in arrival order.
func (c *Client) Frames() <-chan []byte { return c.frames }

// Status delivers connection state transitions.
func (c *Client) Status() <-chan Status { return c.status }

// Connect dials the server and starts the read loop. It fails if the initial
// dial fails; later drops are retried internally with exponential backoff.
func (c *Client) Connect(ctx context.Context) error {
	ctx, span := otel.Tracer("messenger/transport").Start(ctx, "ws.dial")
	defer span.End()

	if err := c.dial(ctx); err != nil {
		return err
	}
	c.notify(Status{Connected: true})
	go c.readLoop()
	return nil
}

// Send writes one frame. Safe for concurrent use.
func (c *Client) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.conn == nil {
		return errors.New("transport not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// Close tears the connection down and stops reconnection attempts.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	close(c.done)
	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		return conn.Close()
	}
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.connID = newConnID()
	connID := c.connID
	c.mu.Unlock()

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("ws.conn_id", connID))
	log.Printf("transport connected url=%s conn_id=%s", c.url, connID)
	return nil
}

func (c *Client) readLoop() {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, frame, err := conn.ReadMessage()
		if err == nil {
			select {
			case c.frames <- frame:
			case <-c.done:
				return
			}
			continue
		}

		c.mu.Lock()
		closed := c.closed
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
		if closed {
			return
		}

		if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			log.Printf("transport read error: %v", err)
		}
		c.notify(Status{Connected: false, Err: err})

		if !c.reconnect() {
			return
		}
		c.notify(Status{Connected: true, Resumed: true})
	}
}

// reconnect retries the dial with exponential backoff until it succeeds or
// the transport is closed. Reports whether a new connection is live.
func (c *Client) reconnect() bool {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 0

	for {
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return false
		}

		if err := c.dial(context.Background()); err != nil {
			log.Printf("transport reconnect failed: %v", err)
			select {
			case <-time.After(policy.NextBackOff()):
				continue
			case <-c.done:
				return false
			}
		}

		observability.IncReconnect()
		return true
	}
}

func (c *Client) notify(s Status) {
	select {
	case c.status <- s:
	case <-c.done:
	}
}

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
