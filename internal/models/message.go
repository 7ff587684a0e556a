package models

import "time"

// Delivery status codes, as carried on the wire.
const (
	StatusSent      = 1
	StatusDelivered = 2
	StatusRead      = 3
)

// Message represents a private chat message. Before the server has persisted
// it, TempID is the reconciliation key; once ServerID is assigned the temp id
// is retired.
type Message struct {
	ServerID   string    `json:"_id,omitempty" db:"server_id"`
	TempID     string    `json:"tempId,omitempty" db:"temp_id"`
	SenderID   int       `json:"senderId" db:"sender_id"`
	ReceiverID int       `json:"receiverId" db:"receiver_id"`
	Text       string    `json:"text" db:"text"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
	Status     int       `json:"status" db:"status"`
}

// Key returns the current reconciliation key: the server id once assigned,
// otherwise the temporary id.
func (m Message) Key() string {
	if m.ServerID != "" {
		return m.ServerID
	}
	return m.TempID
}

// Between reports whether the message belongs to the conversation between the
// two given users, regardless of direction.
func (m Message) Between(userA, userB int) bool {
	return (m.SenderID == userA && m.ReceiverID == userB) ||
		(m.SenderID == userB && m.ReceiverID == userA)
}
