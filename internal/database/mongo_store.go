package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/journal-backend/internal/models"
	"github.com/AnshRaj112/journal-backend/internal/services"
)

const (
	usersCollection   = "users"
	entriesCollection = "journal_entries"
)

// MongoStore implements the user and entry stores on MongoDB. Ids are stored
// as their canonical string form.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{client: client, db: db}
}

// EnsureIndexes creates the unique email index and the listing index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}
	_, err = s.db.Collection(entriesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create entries index: %w", err)
	}
	return nil
}

func (s *MongoStore) Users() services.UserStore {
	return mongoUsers{s.db.Collection(usersCollection)}
}

func (s *MongoStore) Entries() services.EntryStore {
	return mongoEntries{
		entries: s.db.Collection(entriesCollection),
		users:   s.db.Collection(usersCollection),
	}
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type userDocument struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

func (d userDocument) model() (models.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("corrupt user id %q: %w", d.ID, err)
	}
	return models.User{ID: id, Email: d.Email, PasswordHash: d.PasswordHash, CreatedAt: d.CreatedAt}, nil
}

type entryDocument struct {
	ID        string    `bson:"_id"`
	OwnerID   string    `bson:"owner_id"`
	Title     string    `bson:"title"`
	Content   string    `bson:"content"`
	Mood      *string   `bson:"mood"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func newEntryDocument(e models.JournalEntry) entryDocument {
	return entryDocument{
		ID:        e.ID.String(),
		OwnerID:   e.OwnerID.String(),
		Title:     e.Title,
		Content:   e.Content,
		Mood:      e.Mood,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func (d entryDocument) model() (models.JournalEntry, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.JournalEntry{}, fmt.Errorf("corrupt entry id %q: %w", d.ID, err)
	}
	owner, err := uuid.Parse(d.OwnerID)
	if err != nil {
		return models.JournalEntry{}, fmt.Errorf("corrupt owner id %q: %w", d.OwnerID, err)
	}
	return models.JournalEntry{
		ID:        id,
		OwnerID:   owner,
		Title:     d.Title,
		Content:   d.Content,
		Mood:      d.Mood,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

type mongoUsers struct {
	coll *mongo.Collection
}

func (r mongoUsers) Create(ctx context.Context, user models.User) (models.User, error) {
	_, err := r.coll.InsertOne(ctx, userDocument{
		ID:           user.ID.String(),
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, services.ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("mongo error: %w", err)
	}
	return user, nil
}

func (r mongoUsers) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r mongoUsers) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r mongoUsers) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, services.ErrNotFound
		}
		return models.User{}, fmt.Errorf("mongo error: %w", err)
	}
	return doc.model()
}

type mongoEntries struct {
	entries *mongo.Collection
	users   *mongo.Collection
}

func ownedFilter(id, ownerID uuid.UUID) bson.M {
	return bson.M{"_id": id.String(), "owner_id": ownerID.String()}
}

// Create refuses entries for owners that no longer exist. MongoDB has no
// foreign keys, so the owner is checked first.
func (r mongoEntries) Create(ctx context.Context, entry models.JournalEntry) (models.JournalEntry, error) {
	n, err := r.users.CountDocuments(ctx, bson.M{"_id": entry.OwnerID.String()}, options.Count().SetLimit(1))
	if err != nil {
		return models.JournalEntry{}, fmt.Errorf("mongo error: %w", err)
	}
	if n == 0 {
		return models.JournalEntry{}, services.ErrNotFound
	}

	if _, err := r.entries.InsertOne(ctx, newEntryDocument(entry)); err != nil {
		return models.JournalEntry{}, fmt.Errorf("mongo error: %w", err)
	}
	return entry, nil
}

func (r mongoEntries) ListByOwner(ctx context.Context, ownerID uuid.UUID, page models.Page) ([]models.JournalEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if page.Limit > 0 {
		opts.SetLimit(int64(page.Limit))
	}
	if page.Skip > 0 {
		opts.SetSkip(int64(page.Skip))
	}

	cursor, err := r.entries.Find(ctx, bson.M{"owner_id": ownerID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []entryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo error: %w", err)
	}

	out := make([]models.JournalEntry, 0, len(docs))
	for _, d := range docs {
		e, err := d.model()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r mongoEntries) GetOwned(ctx context.Context, id, ownerID uuid.UUID) (models.JournalEntry, error) {
	var doc entryDocument
	if err := r.entries.FindOne(ctx, ownedFilter(id, ownerID)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.JournalEntry{}, services.ErrNotFound
		}
		return models.JournalEntry{}, fmt.Errorf("mongo error: %w", err)
	}
	return doc.model()
}

func (r mongoEntries) UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, patch models.JournalPatch) (models.JournalEntry, error) {
	set := bson.M{"updated_at": patch.UpdatedAt}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	switch {
	case patch.ClearMood:
		set["mood"] = nil
	case patch.Mood != nil:
		set["mood"] = *patch.Mood
	}

	var doc entryDocument
	err := r.entries.FindOneAndUpdate(ctx, ownedFilter(id, ownerID), bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.JournalEntry{}, services.ErrNotFound
		}
		return models.JournalEntry{}, fmt.Errorf("mongo error: %w", err)
	}
	return doc.model()
}

func (r mongoEntries) DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) error {
	res, err := r.entries.DeleteOne(ctx, ownedFilter(id, ownerID))
	if err != nil {
		return fmt.Errorf("mongo error: %w", err)
	}
	if res.DeletedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}
