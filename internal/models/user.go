package models

// User holds the user details the chat list displays.
type User struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
}

// ChatPeer is one entry of the message-user list: a peer the user has a
// conversation with, plus how many of their messages are still unread.
type ChatPeer struct {
	PeerID      int `json:"_id"`
	UnreadCount int `json:"unreadCount"`
}
