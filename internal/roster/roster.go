// Package roster maintains the chat-list view: every peer the user has a
// conversation with, their unread counts, user details, and online flags.
package roster

import (
	"context"
	"fmt"
	"log"
	"sync"

	"messenger/internal/models"
	"messenger/internal/presence"
)

// API is the REST surface the roster loads from. Satisfied by *rest.Client.
type API interface {
	MessagePeers(ctx context.Context, selfID int) ([]models.ChatPeer, error)
	User(ctx context.Context, id int) (models.User, error)
}

// Entry is one chat-list row.
type Entry struct {
	User        models.User `json:"user"`
	UnreadCount int         `json:"unread_count"`
	Online      bool        `json:"online"`
}

// Roster is the unread-aware peer list. Refresh rebuilds it from REST; the
// online flags come from the presence tracker at read time so they stay
// current between refreshes.
type Roster struct {
	api      API
	presence *presence.Tracker
	selfID   int

	mu      sync.Mutex
	entries []Entry
}

// New builds an empty roster for the given user.
func New(api API, tracker *presence.Tracker, selfID int) *Roster {
	return &Roster{api: api, presence: tracker, selfID: selfID}
}

// Refresh reloads the peer list and each peer's details. A failed detail
// lookup keeps the row with just the peer id so the unread count still shows.
func (r *Roster) Refresh(ctx context.Context) error {
	peers, err := r.api.MessagePeers(ctx, r.selfID)
	if err != nil {
		return fmt.Errorf("refresh roster: %w", err)
	}

	entries := make([]Entry, 0, len(peers))
	for _, peer := range peers {
		entry := Entry{UnreadCount: peer.UnreadCount}
		user, err := r.api.User(ctx, peer.PeerID)
		if err != nil {
			log.Printf("roster user lookup failed id=%d: %v", peer.PeerID, err)
			user = models.User{ID: peer.PeerID}
		}
		entry.User = user
		entries = append(entries, entry)
	}

	r.mu.Lock()
	r.entries = entries
	r.mu.Unlock()
	return nil
}

// Entries returns the current chat list with live online flags.
func (r *Roster) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	for i := range out {
		if r.presence != nil {
			out[i].Online = r.presence.IsOnline(out[i].User.ID)
		}
	}
	return out
}

// UnreadTotal sums the unread counts across all peers.
func (r *Roster) UnreadTotal() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, e := range r.entries {
		total += e.UnreadCount
	}
	return total
}
