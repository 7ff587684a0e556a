package store

import (
	"context"

	"messenger/internal/models"
)

// SaveMessages upserts server-persisted messages into the cache. Messages
// still pending reconciliation (no server id yet) are skipped.
func (s *Store) SaveMessages(ctx context.Context, msgs []models.Message) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, m := range msgs {
		if m.ServerID == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO messages
            (server_id, sender_id, receiver_id, text, timestamp, status)
            VALUES (?, ?, ?, ?, ?, ?)
            ON CONFLICT (server_id) DO UPDATE SET status = excluded.status`,
			m.ServerID, m.SenderID, m.ReceiverID, m.Text, m.Timestamp, m.Status)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CachedHistory returns the cached conversation between two users, oldest
// first.
func (s *Store) CachedHistory(ctx context.Context, selfID, peerID int) ([]models.Message, error) {
	query := `SELECT server_id, sender_id, receiver_id, text, timestamp, status
        FROM messages
        WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
        ORDER BY timestamp ASC`
	var msgs []models.Message
	if err := s.db.SelectContext(ctx, &msgs, query, selfID, peerID, peerID, selfID); err != nil {
		return nil, err
	}
	return msgs, nil
}
