// Package notifications maintains the live system-notification feed and its
// unread counter.
package notifications

import (
	"context"
	"log"
	"sync"

	"messenger/internal/models"
	"messenger/internal/observability"
	"messenger/internal/protocol"
	"messenger/internal/session"
)

// API is the REST surface the feed confirms mark-read mutations against.
// Satisfied by *rest.Client.
type API interface {
	Notifications(ctx context.Context) ([]models.Notification, error)
	MarkNotificationsRead(ctx context.Context, id *int) error
}

// Feed is the most-recent-first notification list plus unread bookkeeping.
// Mark-read mutations apply optimistically and are confirmed over REST; a
// failed confirmation is logged and the optimistic state kept.
type Feed struct {
	api API

	mu     sync.Mutex
	items  []models.Notification
	unread int
	subs   []*session.Subscription
}

// NewFeed builds an empty feed over the given REST API.
func NewFeed(api API) *Feed {
	return &Feed{api: api}
}

// Attach subscribes the feed to notification pushes.
func (f *Feed) Attach(s *session.Session) {
	f.subs = append(f.subs, s.On(protocol.EventNotification, func(e protocol.Event) {
		if n, ok := e.(*protocol.Notification); ok {
			f.ApplyPush(n.Notification)
		}
	}))
}

// Detach cancels the feed's subscriptions.
func (f *Feed) Detach() {
	for _, sub := range f.subs {
		sub.Cancel()
	}
	f.subs = nil
}

// Backfill replaces the feed with the REST list and recomputes the unread
// counter from each item's read flag.
func (f *Feed) Backfill(ctx context.Context) error {
	items, err := f.api.Notifications(ctx)
	if err != nil {
		return err
	}
	unread := 0
	for _, n := range items {
		if !n.IsRead {
			unread++
		}
	}
	f.mu.Lock()
	f.items = items
	f.unread = unread
	f.mu.Unlock()
	observability.SetNotificationsUnread(unread)
	return nil
}

// ApplyPush prepends a freshly pushed notification. New notifications are
// always unread.
func (f *Feed) ApplyPush(n models.Notification) {
	f.mu.Lock()
	f.items = append([]models.Notification{n}, f.items...)
	f.unread++
	unread := f.unread
	f.mu.Unlock()
	observability.SetNotificationsUnread(unread)
}

// MarkRead optimistically flips one item's read flag and decrements the
// counter (floored at zero), then confirms over REST.
func (f *Feed) MarkRead(ctx context.Context, id int) error {
	f.mu.Lock()
	for i := range f.items {
		if f.items[i].ID != id {
			continue
		}
		if !f.items[i].IsRead {
			f.items[i].IsRead = true
			if f.unread > 0 {
				f.unread--
			}
		}
		break
	}
	unread := f.unread
	f.mu.Unlock()
	observability.SetNotificationsUnread(unread)

	if err := f.api.MarkNotificationsRead(ctx, &id); err != nil {
		// No rollback: the optimistic flip stands and the server copy stays
		// unread until the next backfill.
		log.Printf("notification mark-read failed id=%d: %v", id, err)
		return err
	}
	return nil
}

// MarkAllRead optimistically flips every item and zeroes the counter, then
// confirms over REST. The server interprets the absent id as "all".
func (f *Feed) MarkAllRead(ctx context.Context) error {
	f.mu.Lock()
	for i := range f.items {
		f.items[i].IsRead = true
	}
	f.unread = 0
	f.mu.Unlock()
	observability.SetNotificationsUnread(0)

	if err := f.api.MarkNotificationsRead(ctx, nil); err != nil {
		log.Printf("notification mark-all-read failed: %v", err)
		return err
	}
	return nil
}

// Items returns a most-recent-first snapshot of the feed.
func (f *Feed) Items() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Notification, len(f.items))
	copy(out, f.items)
	return out
}

// Unread returns the current unread count.
func (f *Feed) Unread() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread
}
