// Package testutil holds in-memory stores and fixtures shared by tests.
package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/AnshRaj112/journal-backend/internal/models"
	"github.com/AnshRaj112/journal-backend/internal/services"
)

// MemStore implements services.UserStore, services.EntryStore and
// services.Pinger in memory. Set PingErr or Err to simulate failures.
type MemStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]models.User
	entries map[uuid.UUID]models.JournalEntry

	PingErr error
	Err     error
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:   make(map[uuid.UUID]models.User),
		entries: make(map[uuid.UUID]models.JournalEntry),
	}
}

// Users exposes the user side of the store.
func (m *MemStore) Users() services.UserStore { return memUsers{m} }

// Entries exposes the entry side of the store.
func (m *MemStore) Entries() services.EntryStore { return memEntries{m} }

func (m *MemStore) Ping(context.Context) error { return m.PingErr }

// DeleteUser removes a user without touching their entries.
func (m *MemStore) DeleteUser(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

// EntryCount returns the number of stored entries across all owners.
func (m *MemStore) EntryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type memUsers struct{ m *MemStore }

func (s memUsers) Create(_ context.Context, user models.User) (models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return models.User{}, s.m.Err
	}
	for _, u := range s.m.users {
		if u.Email == user.Email {
			return models.User{}, services.ErrDuplicateEmail
		}
	}
	s.m.users[user.ID] = user
	return user, nil
}

func (s memUsers) GetByEmail(_ context.Context, email string) (models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return models.User{}, s.m.Err
	}
	for _, u := range s.m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, services.ErrNotFound
}

func (s memUsers) GetByID(_ context.Context, id uuid.UUID) (models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return models.User{}, s.m.Err
	}
	u, ok := s.m.users[id]
	if !ok {
		return models.User{}, services.ErrNotFound
	}
	return u, nil
}

type memEntries struct{ m *MemStore }

func (s memEntries) Create(_ context.Context, entry models.JournalEntry) (models.JournalEntry, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return models.JournalEntry{}, s.m.Err
	}
	if _, ok := s.m.users[entry.OwnerID]; !ok {
		return models.JournalEntry{}, services.ErrNotFound
	}
	s.m.entries[entry.ID] = entry
	return entry, nil
}

func (s memEntries) ListByOwner(_ context.Context, ownerID uuid.UUID, page models.Page) ([]models.JournalEntry, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return nil, s.m.Err
	}
	out := []models.JournalEntry{}
	for _, e := range s.m.entries {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if page.Skip >= len(out) {
		return []models.JournalEntry{}, nil
	}
	out = out[page.Skip:]
	if page.Limit > 0 && page.Limit < len(out) {
		out = out[:page.Limit]
	}
	return out, nil
}

func (s memEntries) GetOwned(_ context.Context, id, ownerID uuid.UUID) (models.JournalEntry, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return models.JournalEntry{}, s.m.Err
	}
	e, ok := s.m.entries[id]
	if !ok || e.OwnerID != ownerID {
		return models.JournalEntry{}, services.ErrNotFound
	}
	return e, nil
}

func (s memEntries) UpdateOwned(_ context.Context, id, ownerID uuid.UUID, patch models.JournalPatch) (models.JournalEntry, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return models.JournalEntry{}, s.m.Err
	}
	e, ok := s.m.entries[id]
	if !ok || e.OwnerID != ownerID {
		return models.JournalEntry{}, services.ErrNotFound
	}
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Content != nil {
		e.Content = *patch.Content
	}
	switch {
	case patch.ClearMood:
		e.Mood = nil
	case patch.Mood != nil:
		mood := *patch.Mood
		e.Mood = &mood
	}
	e.UpdatedAt = patch.UpdatedAt
	s.m.entries[id] = e
	return e, nil
}

func (s memEntries) DeleteOwned(_ context.Context, id, ownerID uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return s.m.Err
	}
	e, ok := s.m.entries[id]
	if !ok || e.OwnerID != ownerID {
		return services.ErrNotFound
	}
	delete(s.m.entries, id)
	return nil
}
