package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/AnshRaj112/journal-backend/internal/models"
	"github.com/AnshRaj112/journal-backend/internal/services"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// PostgresStore implements the user and entry stores on database/sql.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Users() services.UserStore      { return postgresUsers{s.db} }
func (s *PostgresStore) Entries() services.EntryStore   { return postgresEntries{s.db} }
func (s *PostgresStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *PostgresStore) Close() error                   { return s.db.Close() }

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

type postgresUsers struct {
	db *sql.DB
}

func (r postgresUsers) Create(ctx context.Context, user models.User) (models.User, error) {
	query := `INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return models.User{}, services.ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r postgresUsers) GetByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r postgresUsers) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	query := `SELECT id, email, password_hash, created_at FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r postgresUsers) scanOne(row *sql.Row) (models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, services.ErrNotFound
		}
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

type postgresEntries struct {
	db *sql.DB
}

const entryColumns = `id, owner_id, title, content, mood, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (models.JournalEntry, error) {
	var (
		e    models.JournalEntry
		mood sql.NullString
	)
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Content, &mood, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return models.JournalEntry{}, err
	}
	if mood.Valid {
		e.Mood = &mood.String
	}
	return e, nil
}

func (r postgresEntries) Create(ctx context.Context, entry models.JournalEntry) (models.JournalEntry, error) {
	query := `INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.OwnerID, entry.Title, entry.Content, entry.Mood, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return models.JournalEntry{}, services.ErrNotFound
		}
		return models.JournalEntry{}, fmt.Errorf("db error: %w", err)
	}
	return entry, nil
}

func (r postgresEntries) ListByOwner(ctx context.Context, ownerID uuid.UUID, page models.Page) ([]models.JournalEntry, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + entryColumns + ` FROM journal_entries WHERE owner_id = $1 ORDER BY created_at, id`)
	args := []any{ownerID}
	if page.Limit > 0 {
		args = append(args, page.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	if page.Skip > 0 {
		args = append(args, page.Skip)
		fmt.Fprintf(&sb, ` OFFSET $%d`, len(args))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	entries := []models.JournalEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entries, nil
}

func (r postgresEntries) GetOwned(ctx context.Context, id, ownerID uuid.UUID) (models.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE id = $1 AND owner_id = $2`
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.JournalEntry{}, services.ErrNotFound
		}
		return models.JournalEntry{}, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// UpdateOwned applies the patch in a single statement; the ownership check and
// the write cannot be separated by a concurrent request.
func (r postgresEntries) UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, patch models.JournalPatch) (models.JournalEntry, error) {
	query := `UPDATE journal_entries SET
			title = COALESCE($3, title),
			content = COALESCE($4, content),
			mood = CASE WHEN $6 THEN NULL ELSE COALESCE($5, mood) END,
			updated_at = $7
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + entryColumns

	e, err := scanEntry(r.db.QueryRowContext(ctx, query,
		id, ownerID, patch.Title, patch.Content, patch.Mood, patch.ClearMood, patch.UpdatedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.JournalEntry{}, services.ErrNotFound
		}
		return models.JournalEntry{}, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r postgresEntries) DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return services.ErrNotFound
	}
	return nil
}
