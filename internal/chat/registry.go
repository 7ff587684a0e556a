package chat

import (
	"context"
	"errors"
	"sync"

	"messenger/internal/models"
	"messenger/internal/protocol"
	"messenger/internal/session"
)

// ErrNoUser is returned when opening a conversation before the session knows
// its local user id, i.e. before the first Connect.
var ErrNoUser = errors.New("session user unknown")

// Registry routes inbound chat events to per-peer conversations. It holds the
// session subscriptions so a conversation is created lazily either when a
// view opens it or when a message referencing it arrives; conversations are
// never destroyed.
type Registry struct {
	sess     *session.Session
	history  History
	fallback ReadFallback

	mu     sync.Mutex
	convos map[int]*Conversation
	subs   []*session.Subscription
}

// NewRegistry wires a registry to the session's chat events. history may be
// nil, in which case Open skips backfill; fallback may be nil, in which case
// read confirmations are socket-only.
func NewRegistry(s *session.Session, h History, fallback ReadFallback) *Registry {
	r := &Registry{sess: s, history: h, fallback: fallback, convos: make(map[int]*Conversation)}
	r.subs = append(r.subs,
		s.On(protocol.EventPrivateMsg, r.routeMessage),
		s.On(protocol.EventTyping, r.routeTyping),
		s.On(protocol.EventMessagesRead, r.routeReadReceipt),
	)
	return r
}

// Open returns the conversation with peerID, creating it if needed, marks it
// on screen, and backfills history when a source is configured. A backfill
// failure leaves the conversation usable with whatever state it already has.
// Opening before the session has identified its user fails with ErrNoUser: a
// conversation created then would be bound to user id 0 and never match its
// own message pair.
func (r *Registry) Open(ctx context.Context, peerID int) (*Conversation, error) {
	if r.sess.UserID() == 0 {
		return nil, ErrNoUser
	}
	c := r.Conversation(peerID)
	if r.history != nil {
		if err := c.Backfill(ctx, r.history); err != nil {
			c.Open()
			return c, err
		}
	}
	c.Open()
	return c, nil
}

// Conversation returns the conversation with peerID, creating it lazily.
func (r *Registry) Conversation(peerID int) *Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convos[peerID]
	if !ok {
		c = NewConversation(r.sess, r.sess.UserID(), peerID, r.fallback)
		r.convos[peerID] = c
	}
	return c
}

// Close cancels the registry's subscriptions. Conversation state survives.
func (r *Registry) Close() {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()
	for _, sub := range subs {
		sub.Cancel()
	}
}

// MessageCounts reports per-peer message counts, used by diagnostics.
func (r *Registry) MessageCounts() map[int]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[int]int, len(r.convos))
	for peerID, c := range r.convos {
		counts[peerID] = c.Len()
	}
	return counts
}

func (r *Registry) routeMessage(e protocol.Event) {
	msg, ok := e.(*protocol.PrivateMsg)
	if !ok {
		return
	}
	peerID, ok := r.peerOf(msg.Message)
	if !ok {
		return
	}
	r.Conversation(peerID).Apply(msg.Message)
}

func (r *Registry) routeTyping(e protocol.Event) {
	t, ok := e.(*protocol.Typing)
	if !ok || t.SenderID == r.sess.UserID() {
		return
	}
	r.Conversation(t.SenderID).ApplyTyping(t.SenderID, t.IsTyping)
}

func (r *Registry) routeReadReceipt(e protocol.Event) {
	receipt, ok := e.(*protocol.MessagesRead)
	if !ok {
		return
	}
	r.mu.Lock()
	convos := make([]*Conversation, 0, len(r.convos))
	for _, c := range r.convos {
		convos = append(convos, c)
	}
	r.mu.Unlock()
	// Each conversation filters by its own peer id.
	for _, c := range convos {
		c.ApplyReadReceipt(receipt.ReaderID)
	}
}

// peerOf resolves which conversation a message belongs to, relative to the
// local user. Messages not involving the local user are ignored.
func (r *Registry) peerOf(msg models.Message) (int, bool) {
	selfID := r.sess.UserID()
	switch selfID {
	case msg.ReceiverID:
		return msg.SenderID, true
	case msg.SenderID:
		return msg.ReceiverID, true
	default:
		return 0, false
	}
}
