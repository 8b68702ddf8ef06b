package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/journal-backend/internal/models"
	"github.com/AnshRaj112/journal-backend/internal/services"
	"github.com/AnshRaj112/journal-backend/internal/testutil"
)

func strPtr(s string) *string { return &s }

type journalFixture struct {
	store *testutil.MemStore
	svc   *services.JournalService
	alice uuid.UUID
	bob   uuid.UUID
}

func newJournalFixture(t *testing.T) journalFixture {
	t.Helper()
	store := testutil.NewMemStore()
	users := newUserService(t, store.Users())

	alice, err := users.Register(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)
	bob, err := users.Register(context.Background(), "bob@example.com", "pw")
	require.NoError(t, err)

	return journalFixture{
		store: store,
		svc:   services.NewJournalService(store.Entries()),
		alice: alice.ID,
		bob:   bob.ID,
	}
}

func TestJournal_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	f := newJournalFixture(t)

	entry, err := f.svc.Create(ctx, f.alice, services.NewEntry{Title: "T", Content: "C", Mood: strPtr("calm")})
	require.NoError(t, err)
	assert.Equal(t, f.alice, entry.OwnerID)
	assert.Equal(t, "calm", *entry.Mood)
	assert.Equal(t, entry.CreatedAt, entry.UpdatedAt)

	got, err := f.svc.Get(ctx, f.alice, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	_, err = f.svc.Get(ctx, f.bob, entry.ID)
	assert.Equal(t, services.KindNotFound, services.KindOf(err))

	_, err = f.svc.Get(ctx, f.alice, uuid.New())
	assert.Equal(t, services.KindNotFound, services.KindOf(err))
}

func TestJournal_CreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newJournalFixture(t)

	_, err := f.svc.Create(ctx, f.alice, services.NewEntry{Content: "C"})
	assert.Equal(t, services.KindBadRequest, services.KindOf(err))

	_, err = f.svc.Create(ctx, f.alice, services.NewEntry{Title: "T", Content: "  "})
	assert.Equal(t, services.KindBadRequest, services.KindOf(err))

	assert.Zero(t, f.store.EntryCount())
}

func TestJournal_CreateForDeletedUser(t *testing.T) {
	f := newJournalFixture(t)
	f.store.DeleteUser(f.alice)

	_, err := f.svc.Create(context.Background(), f.alice, services.NewEntry{Title: "T", Content: "C"})
	assert.Equal(t, services.KindUnauthenticated, services.KindOf(err))
}

func TestJournal_ListIsOwnerScoped(t *testing.T) {
	ctx := context.Background()
	f := newJournalFixture(t)

	list, err := f.svc.List(ctx, f.alice, models.Page{})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	for _, title := range []string{"a1", "a2", "a3"} {
		_, err := f.svc.Create(ctx, f.alice, services.NewEntry{Title: title, Content: "x"})
		require.NoError(t, err)
	}
	_, err = f.svc.Create(ctx, f.bob, services.NewEntry{Title: "b1", Content: "x"})
	require.NoError(t, err)

	list, err = f.svc.List(ctx, f.alice, models.Page{})
	require.NoError(t, err)
	assert.Len(t, list, 3)
	for _, e := range list {
		assert.Equal(t, f.alice, e.OwnerID)
	}

	page, err := f.svc.List(ctx, f.alice, models.Page{Limit: 2, Skip: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	_, err = f.svc.List(ctx, f.alice, models.Page{Limit: -1})
	assert.Equal(t, services.KindBadRequest, services.KindOf(err))
}

func TestJournal_Update(t *testing.T) {
	ctx := context.Background()
	f := newJournalFixture(t)

	entry, err := f.svc.Create(ctx, f.alice, services.NewEntry{Title: "T", Content: "C", Mood: strPtr("sad")})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, f.alice, entry.ID, models.JournalPatch{Title: strPtr("T2")})
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, "C", updated.Content)
	require.NotNil(t, updated.Mood)
	assert.Equal(t, "sad", *updated.Mood)
	assert.False(t, updated.UpdatedAt.Before(entry.UpdatedAt))

	cleared, err := f.svc.Update(ctx, f.alice, entry.ID, models.JournalPatch{ClearMood: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.Mood)

	_, err = f.svc.Update(ctx, f.alice, entry.ID, models.JournalPatch{Content: strPtr("")})
	assert.Equal(t, services.KindBadRequest, services.KindOf(err))

	_, err = f.svc.Update(ctx, f.bob, entry.ID, models.JournalPatch{Title: strPtr("hijack")})
	assert.Equal(t, services.KindNotFound, services.KindOf(err))

	got, err := f.svc.Get(ctx, f.alice, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "T2", got.Title)
}

func TestJournal_Delete(t *testing.T) {
	ctx := context.Background()
	f := newJournalFixture(t)

	entry, err := f.svc.Create(ctx, f.alice, services.NewEntry{Title: "T", Content: "C"})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, f.bob, entry.ID)
	assert.Equal(t, services.KindNotFound, services.KindOf(err))
	assert.Equal(t, 1, f.store.EntryCount())

	require.NoError(t, f.svc.Delete(ctx, f.alice, entry.ID))

	err = f.svc.Delete(ctx, f.alice, entry.ID)
	assert.Equal(t, services.KindNotFound, services.KindOf(err))
}

func TestJournal_StoreFailureIsInternal(t *testing.T) {
	f := newJournalFixture(t)
	f.store.Err = errors.New("disk full")

	_, err := f.svc.List(context.Background(), f.alice, models.Page{})
	assert.Equal(t, services.KindInternal, services.KindOf(err))
}
