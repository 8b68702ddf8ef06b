package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AnshRaj112/journal-backend/internal/logger"
	"github.com/AnshRaj112/journal-backend/internal/models"
)

const msgEntryNotFound = "entry not found"

// NewEntry is the input of JournalService.Create.
type NewEntry struct {
	Title   string
	Content string
	Mood    *string
}

// JournalService implements owner-scoped CRUD over journal entries. The owner
// is always the authenticated caller, never a value from the request body.
type JournalService struct {
	entries EntryStore
	now     func() time.Time
}

func NewJournalService(entries EntryStore) *JournalService {
	return &JournalService{entries: entries, now: time.Now}
}

// List returns the caller's entries, oldest first. Never nil.
func (s *JournalService) List(ctx context.Context, ownerID uuid.UUID, page models.Page) ([]models.JournalEntry, error) {
	if page.Limit < 0 || page.Skip < 0 {
		return nil, BadRequest("limit and skip must be non-negative")
	}
	entries, err := s.entries.ListByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, Internal(err)
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	return entries, nil
}

func (s *JournalService) Get(ctx context.Context, ownerID, id uuid.UUID) (models.JournalEntry, error) {
	entry, err := s.entries.GetOwned(ctx, id, ownerID)
	if err != nil {
		return models.JournalEntry{}, s.storeErr(err)
	}
	return entry, nil
}

func (s *JournalService) Create(ctx context.Context, ownerID uuid.UUID, in NewEntry) (models.JournalEntry, error) {
	if strings.TrimSpace(in.Title) == "" {
		return models.JournalEntry{}, BadRequest("title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return models.JournalEntry{}, BadRequest("content is required")
	}

	now := s.now().UTC()
	entry, err := s.entries.Create(ctx, models.JournalEntry{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     in.Title,
		Content:   in.Content,
		Mood:      in.Mood,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		// The owner row vanished between token issue and insert.
		if errors.Is(err, ErrNotFound) {
			return models.JournalEntry{}, Unauthenticated("authentication required", err)
		}
		return models.JournalEntry{}, Internal(err)
	}

	logger.FromContext(ctx).WithField("entryID", entry.ID.String()).Debug("entry created")
	return entry, nil
}

// Update applies the provided fields of patch to an entry the caller owns.
func (s *JournalService) Update(ctx context.Context, ownerID, id uuid.UUID, patch models.JournalPatch) (models.JournalEntry, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return models.JournalEntry{}, BadRequest("title must not be empty")
	}
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return models.JournalEntry{}, BadRequest("content must not be empty")
	}
	if patch.ClearMood {
		patch.Mood = nil
	}
	patch.UpdatedAt = s.now().UTC()

	entry, err := s.entries.UpdateOwned(ctx, id, ownerID, patch)
	if err != nil {
		return models.JournalEntry{}, s.storeErr(err)
	}
	return entry, nil
}

func (s *JournalService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.entries.DeleteOwned(ctx, id, ownerID); err != nil {
		return s.storeErr(err)
	}
	logger.FromContext(ctx).WithField("entryID", id.String()).Debug("entry deleted")
	return nil
}

func (s *JournalService) storeErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return NotFound(msgEntryNotFound)
	}
	return Internal(err)
}
