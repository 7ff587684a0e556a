package store

import (
	"context"
	"log"

	"messenger/internal/chat"
	"messenger/internal/models"
)

// CachingHistory decorates a REST history source with the local cache: fetch
// results are cached, and when the backend is unreachable the cache serves
// the last known history so offline reads keep working.
type CachingHistory struct {
	Source chat.History
	Store  *Store
}

// ChatHistory implements chat.History.
func (h CachingHistory) ChatHistory(ctx context.Context, selfID, peerID int) ([]models.Message, error) {
	msgs, err := h.Source.ChatHistory(ctx, selfID, peerID)
	if err == nil {
		if saveErr := h.Store.SaveMessages(ctx, msgs); saveErr != nil {
			log.Printf("history cache write failed: %v", saveErr)
		}
		return msgs, nil
	}

	cached, cacheErr := h.Store.CachedHistory(ctx, selfID, peerID)
	if cacheErr != nil || len(cached) == 0 {
		return nil, err
	}
	log.Printf("history fetch failed, serving %d cached messages: %v", len(cached), err)
	return cached, nil
}
