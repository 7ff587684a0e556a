package store

import (
	"context"

	"messenger/internal/models"
)

// SaveNotifications upserts feed entries into the cache.
func (s *Store) SaveNotifications(ctx context.Context, items []models.Notification) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, n := range items {
		_, err := tx.ExecContext(ctx, `INSERT INTO notifications
            (id, title, message, is_read, created_at, item_id)
            VALUES (?, ?, ?, ?, ?, ?)
            ON CONFLICT (id) DO UPDATE SET is_read = excluded.is_read`,
			n.ID, n.Title, n.Message, n.IsRead, n.CreatedAt, n.ItemID)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// MarkNotificationsRead flags one cached entry read, or all of them when id
// is nil. Ids not in the cache are a no-op.
func (s *Store) MarkNotificationsRead(ctx context.Context, id *int) error {
	if id == nil {
		_, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE`)
		return err
	}
	_, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = ?`, *id)
	return err
}

// CachedNotifications returns the cached feed, most recent first.
func (s *Store) CachedNotifications(ctx context.Context) ([]models.Notification, error) {
	query := `SELECT id, title, message, is_read, created_at, item_id
        FROM notifications ORDER BY created_at DESC, id DESC`
	var items []models.Notification
	if err := s.db.SelectContext(ctx, &items, query); err != nil {
		return nil, err
	}
	return items, nil
}
