// Package presence tracks which users the server currently reports online.
package presence

import (
	"sync"

	"messenger/internal/protocol"
	"messenger/internal/session"
)

// Tracker holds the online-user set. The set is only ever replaced wholesale
// by a server snapshot; a dropped connection voids everything previously
// known, so on disconnect the set is cleared, not merged.
type Tracker struct {
	mu     sync.RWMutex
	online map[int]struct{}
	subs   []*session.Subscription
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{online: make(map[int]struct{})}
}

// Attach subscribes the tracker to presence pushes and connection drops.
func (t *Tracker) Attach(s *session.Session) {
	t.subs = append(t.subs,
		s.On(protocol.EventOnlineUsers, func(e protocol.Event) {
			if snapshot, ok := e.(*protocol.OnlineUsers); ok {
				t.Replace(snapshot.UserIDs)
			}
		}),
		s.OnStateChange(func(state session.State) {
			// Anything other than connected means presence unknown.
			if state != session.StateConnected {
				t.Clear()
			}
		}),
	)
}

// Detach cancels the tracker's subscriptions.
func (t *Tracker) Detach() {
	for _, sub := range t.subs {
		sub.Cancel()
	}
	t.subs = nil
}

// Replace installs a full presence snapshot.
func (t *Tracker) Replace(userIDs []int) {
	next := make(map[int]struct{}, len(userIDs))
	for _, id := range userIDs {
		next[id] = struct{}{}
	}
	t.mu.Lock()
	t.online = next
	t.mu.Unlock()
}

// Clear empties the set.
func (t *Tracker) Clear() {
	t.mu.Lock()
	t.online = make(map[int]struct{})
	t.mu.Unlock()
}

// IsOnline reports whether the user is currently online.
func (t *Tracker) IsOnline(userID int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[userID]
	return ok
}

// Online returns the current online user ids.
func (t *Tracker) Online() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]int, 0, len(t.online))
	for id := range t.online {
		ids = append(ids, id)
	}
	return ids
}

// Count returns how many users are online.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.online)
}
