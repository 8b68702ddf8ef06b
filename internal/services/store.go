package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/AnshRaj112/journal-backend/internal/models"
)

// UserStore persists accounts. Create returns ErrDuplicateEmail when the
// email is taken; lookups return ErrNotFound for a missing user.
type UserStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

// EntryStore persists journal entries. Every read and write other than
// Create is keyed on both the entry id and the owner id, so an entry that
// exists but belongs to someone else is reported as ErrNotFound.
type EntryStore interface {
	Create(ctx context.Context, entry models.JournalEntry) (models.JournalEntry, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, page models.Page) ([]models.JournalEntry, error)
	GetOwned(ctx context.Context, id, ownerID uuid.UUID) (models.JournalEntry, error)
	UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, patch models.JournalPatch) (models.JournalEntry, error)
	DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) error
}

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}
