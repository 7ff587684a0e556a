package store

import (
	"context"
	"log"

	"messenger/internal/models"
	"messenger/internal/notifications"
)

// CachingFeed decorates the REST notification source with the local cache,
// mirroring CachingHistory: fetched lists are cached, and when the backend is
// unreachable the last cached feed is served instead.
type CachingFeed struct {
	Source notifications.API
	Store  *Store
}

// Notifications implements notifications.API.
func (f CachingFeed) Notifications(ctx context.Context) ([]models.Notification, error) {
	items, err := f.Source.Notifications(ctx)
	if err == nil {
		if saveErr := f.Store.SaveNotifications(ctx, items); saveErr != nil {
			log.Printf("notification cache write failed: %v", saveErr)
		}
		return items, nil
	}

	cached, cacheErr := f.Store.CachedNotifications(ctx)
	if cacheErr != nil || len(cached) == 0 {
		return nil, err
	}
	log.Printf("notification fetch failed, serving %d cached entries: %v", len(cached), err)
	return cached, nil
}

// MarkNotificationsRead implements notifications.API. The cache is updated
// even when the REST confirmation fails, matching the feed's optimistic
// mark-read semantics.
func (f CachingFeed) MarkNotificationsRead(ctx context.Context, id *int) error {
	if err := f.Store.MarkNotificationsRead(ctx, id); err != nil {
		log.Printf("notification cache mark-read failed: %v", err)
	}
	return f.Source.MarkNotificationsRead(ctx, id)
}
