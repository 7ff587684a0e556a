// Package protocol defines the wire events exchanged with the messaging
// server. Frames are JSON text with an {"event": name, "data": payload}
// envelope; each event name maps to exactly one typed payload, and inbound
// payloads are validated before they reach any handler.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"messenger/internal/models"
)

// Event names.
const (
	EventJoin         = "join"
	EventPrivateMsg   = "PrivateMsg"
	EventTyping       = "typing"
	EventMarkAsRead   = "markAsRead"
	EventMessagesRead = "messagesRead"
	EventNotification = "notification"
	EventOnlineUsers  = "onlineUsers"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrBadPayload   = errors.New("malformed event payload")
)

// Event is a decoded wire event.
type Event interface {
	EventName() string
}

// Join announces presence after connecting. Outbound only.
type Join struct {
	UserID int `json:"userId" validate:"required"`
}

func (Join) EventName() string { return EventJoin }

// PrivateMsg carries a chat message in both directions. Outbound messages have
// only a temp id; inbound ones may add the server id.
type PrivateMsg struct {
	models.Message
}

func (PrivateMsg) EventName() string { return EventPrivateMsg }

// Typing signals a typing-state edge. Outbound carries both ids; inbound only
// the sender is meaningful.
type Typing struct {
	SenderID   int  `json:"senderId" validate:"required"`
	ReceiverID int  `json:"receiverId,omitempty"`
	IsTyping   bool `json:"isTyping"`
}

func (Typing) EventName() string { return EventTyping }

// MarkAsRead asks the server to mark every message from SenderID to
// ReceiverID as read. Outbound only.
type MarkAsRead struct {
	SenderID   int `json:"senderId" validate:"required"`
	ReceiverID int `json:"receiverId" validate:"required"`
}

func (MarkAsRead) EventName() string { return EventMarkAsRead }

// MessagesRead is the bulk read-receipt confirmation: the peer identified by
// ReaderID has read everything sent to them so far.
type MessagesRead struct {
	ReaderID int `json:"readerId" validate:"required"`
}

func (MessagesRead) EventName() string { return EventMessagesRead }

// Notification pushes a new feed entry.
type Notification struct {
	models.Notification
}

func (Notification) EventName() string { return EventNotification }

// OnlineUsers is the full presence snapshot. It replaces, never merges.
type OnlineUsers struct {
	UserIDs []int `json:"userIds"`
}

func (OnlineUsers) EventName() string { return EventOnlineUsers }

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

var validate = validator.New()

// Encode wraps an event in the wire envelope.
func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: e.EventName(), Data: data})
}

// Decode parses a raw frame into its typed event. Unknown event names return
// ErrUnknownEvent; payloads that fail to parse or validate return
// ErrBadPayload.
func Decode(frame []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	var event Event
	switch env.Event {
	case EventPrivateMsg:
		event = &PrivateMsg{}
	case EventTyping:
		event = &Typing{}
	case EventMessagesRead:
		event = &MessagesRead{}
	case EventNotification:
		event = &Notification{}
	case EventOnlineUsers:
		event = &OnlineUsers{}
	case EventJoin:
		event = &Join{}
	case EventMarkAsRead:
		event = &MarkAsRead{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}

	if err := json.Unmarshal(env.Data, event); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadPayload, env.Event, err)
	}
	if err := validateEvent(event); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadPayload, env.Event, err)
	}
	return event, nil
}

func validateEvent(e Event) error {
	switch v := e.(type) {
	case *PrivateMsg:
		// A message must identify both parties and carry a reconciliation key.
		if v.SenderID == 0 || v.ReceiverID == 0 {
			return errors.New("missing sender or receiver")
		}
		if v.Key() == "" {
			return errors.New("missing message id")
		}
		return nil
	case *Notification:
		if v.ID == 0 {
			return errors.New("missing notification id")
		}
		return nil
	case *OnlineUsers:
		return nil
	default:
		return validate.Struct(e)
	}
}
