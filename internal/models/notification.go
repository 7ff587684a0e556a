package models

import "time"

// Notification is one entry of the per-user notification feed.
type Notification struct {
	ID        int       `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	// ItemID optionally references the entity the notification deep-links to.
	ItemID string `json:"item_id,omitempty" db:"item_id"`
}
