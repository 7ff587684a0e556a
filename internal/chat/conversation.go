// Package chat holds the per-conversation message stream: an append-only,
// chronologically ordered log that merges optimistic local sends with server
// echoes and inbound pushes.
package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"messenger/internal/models"
	"messenger/internal/observability"
	"messenger/internal/protocol"
	"messenger/internal/typing"
)

// ErrEmptyMessage is returned when sending blank text.
var ErrEmptyMessage = errors.New("empty message")

// Emitter sends events upstream. Satisfied by *session.Session.
type Emitter interface {
	Emit(e protocol.Event) error
}

// History backfills a conversation over REST. Satisfied by *rest.Client.
type History interface {
	ChatHistory(ctx context.Context, selfID, peerID int) ([]models.Message, error)
}

// ReadFallback confirms read receipts over REST when the socket emit fails.
// Satisfied by *rest.Client.
type ReadFallback interface {
	MarkAsRead(ctx context.Context, senderID, receiverID int) error
}

// Conversation is the ordered message stream between the local user and one
// peer. Messages are appended in send/arrival order; the only in-place
// mutation is the temp-id to server-id reconciliation splice, which preserves
// position. Conversations live for the app lifetime; Open/Leave only track
// whether the view is on screen.
type Conversation struct {
	emitter  Emitter
	fallback ReadFallback
	selfID   int
	peerID   int
	typer    *typing.Coordinator

	mu         sync.Mutex
	messages   []models.Message
	peerTyping bool
	open       bool

	now       func() time.Time
	newTempID func() string
}

// NewConversation builds a conversation with the given peer. Live events are
// routed in by the Registry; tests drive the Apply methods directly. fallback
// may be nil, in which case a failed read-receipt emit is only logged.
func NewConversation(emitter Emitter, selfID, peerID int, fallback ReadFallback) *Conversation {
	c := &Conversation{
		emitter:   emitter,
		fallback:  fallback,
		selfID:    selfID,
		peerID:    peerID,
		now:       func() time.Time { return time.Now().UTC() },
		newTempID: uuid.NewString,
	}
	c.typer = typing.NewCoordinator(typing.DefaultIdleDelay, c.emitTyping)
	return c
}

// PeerID returns the peer of this conversation.
func (c *Conversation) PeerID() int { return c.peerID }

// Open marks the view on screen and tells the server the peer's messages are
// read. Inbound peer messages are auto-read while open.
func (c *Conversation) Open() {
	c.mu.Lock()
	c.open = true
	c.mu.Unlock()
	c.MarkRead()
}

// Leave marks the view off screen: inbound messages accumulate unread and the
// local typing state is cleared.
func (c *Conversation) Leave() {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
	c.typer.Stop()
}

// Send appends an optimistic message (status Sent, temp id only) and emits it
// upstream. The UI never blocks on the server round-trip.
func (c *Conversation) Send(text string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, ErrEmptyMessage
	}

	msg := models.Message{
		TempID:     c.newTempID(),
		SenderID:   c.selfID,
		ReceiverID: c.peerID,
		Text:       text,
		Timestamp:  c.now(),
		Status:     models.StatusSent,
	}

	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()

	observability.IncMessageSent()
	if err := c.emitter.Emit(&protocol.PrivateMsg{Message: msg}); err != nil {
		// The optimistic copy stays in the log as unsent; no retry policy
		// exists upstream of the transport's own reconnect.
		log.Printf("conversation send failed peer=%d: %v", c.peerID, err)
	}
	c.typer.Stop()
	return msg, nil
}

// Apply reduces one inbound message event into the log:
//
//  1. an event matching a pending temp id replaces that record in place with
//     the server fields merged in, advancing it to Delivered;
//  2. an event whose server id is already present is a duplicate and dropped;
//  3. anything else is appended to the end.
//
// Events not belonging to this conversation's user pair are ignored.
func (c *Conversation) Apply(msg models.Message) {
	if !msg.Between(c.selfID, c.peerID) {
		return
	}

	c.mu.Lock()
	if msg.TempID != "" {
		if idx := c.indexOfTemp(msg.TempID); idx >= 0 {
			merged := msg
			merged.Status = models.StatusDelivered
			if merged.ServerID != "" {
				// The temp id is retired only once the server id replaces it;
				// a message always keeps exactly one reconciliation key.
				merged.TempID = ""
			}
			if c.messages[idx].Status > merged.Status {
				// A bulk read receipt may land before the echo.
				merged.Status = c.messages[idx].Status
			}
			c.messages[idx] = merged
			c.mu.Unlock()
			return
		}
	}
	if msg.ServerID != "" && c.indexOfServer(msg.ServerID) >= 0 {
		c.mu.Unlock()
		return
	}

	if msg.ReceiverID == c.selfID && msg.Status < models.StatusDelivered {
		msg.Status = models.StatusDelivered
	}
	c.messages = append(c.messages, msg)
	readNow := msg.SenderID == c.peerID && c.open
	c.mu.Unlock()

	// While the conversation is on screen, anything the peer sends is read
	// immediately.
	if readNow {
		c.MarkRead()
	}
}

// ApplyTyping sets the peer's typing flag from an inbound typing event.
// Events from other senders are ignored.
func (c *Conversation) ApplyTyping(senderID int, isTyping bool) {
	if senderID != c.peerID {
		return
	}
	c.mu.Lock()
	c.peerTyping = isTyping
	c.mu.Unlock()
}

// ApplyReadReceipt transitions every local-user message to Read when the peer
// confirms reading. The receipt is a bulk "read up to now" signal, not a
// per-message acknowledgement; already-Read messages are unaffected.
func (c *Conversation) ApplyReadReceipt(readerID int) {
	if readerID != c.peerID {
		return
	}
	c.mu.Lock()
	for i := range c.messages {
		if c.messages[i].SenderID == c.selfID {
			c.messages[i].Status = models.StatusRead
		}
	}
	c.mu.Unlock()
}

// MarkRead tells the server the local user has read the peer's messages. The
// socket event is preferred; when it cannot be emitted the confirmation falls
// back to the REST endpoint so the peer's receipts are not lost.
func (c *Conversation) MarkRead() {
	err := c.emitter.Emit(&protocol.MarkAsRead{SenderID: c.peerID, ReceiverID: c.selfID})
	if err == nil {
		return
	}
	log.Printf("conversation mark-read emit failed peer=%d: %v", c.peerID, err)
	if c.fallback == nil {
		return
	}
	if err := c.fallback.MarkAsRead(context.Background(), c.peerID, c.selfID); err != nil {
		log.Printf("conversation mark-read fallback failed peer=%d: %v", c.peerID, err)
	}
}

// Backfill loads history over REST and merges it under any still-pending
// optimistic sends, then marks the conversation read.
func (c *Conversation) Backfill(ctx context.Context, h History) error {
	history, err := h.ChatHistory(ctx, c.selfID, c.peerID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	byTemp := make(map[string]struct{}, len(history))
	for _, m := range history {
		if m.TempID != "" {
			byTemp[m.TempID] = struct{}{}
		}
	}
	merged := make([]models.Message, 0, len(history)+len(c.messages))
	merged = append(merged, history...)
	for _, m := range c.messages {
		if m.ServerID != "" {
			continue // the server already knows it, history is authoritative
		}
		if _, ok := byTemp[m.TempID]; ok {
			continue
		}
		merged = append(merged, m)
	}
	c.messages = merged
	c.mu.Unlock()

	c.MarkRead()
	return nil
}

// Keystroke records local input activity for the typing edge trigger.
func (c *Conversation) Keystroke() {
	c.typer.Keystroke()
}

// PeerTyping reports the last typing state pushed by the peer.
func (c *Conversation) PeerTyping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peerTyping
}

// Messages returns a snapshot of the ordered log.
func (c *Conversation) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages in the log.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func (c *Conversation) emitTyping(isTyping bool) {
	err := c.emitter.Emit(&protocol.Typing{SenderID: c.selfID, ReceiverID: c.peerID, IsTyping: isTyping})
	if err != nil {
		log.Printf("conversation typing emit failed peer=%d: %v", c.peerID, err)
	}
}

func (c *Conversation) indexOfTemp(tempID string) int {
	for i := range c.messages {
		if c.messages[i].TempID == tempID {
			return i
		}
	}
	return -1
}

func (c *Conversation) indexOfServer(serverID string) int {
	for i := range c.messages {
		if c.messages[i].ServerID == serverID {
			return i
		}
	}
	return -1
}
