package models

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntry represents a private journaling entry owned by exactly one user
type JournalEntry struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"ownerId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Mood      *string   `json:"mood"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// JournalPatch carries the fields of an update. Nil fields are left unchanged;
// ClearMood removes the mood tag. UpdatedAt is stamped by the service.
type JournalPatch struct {
	Title     *string
	Content   *string
	Mood      *string
	ClearMood bool
	UpdatedAt time.Time
}

// Page limits a listing. Limit 0 means no limit.
type Page struct {
	Limit int
	Skip  int
}
