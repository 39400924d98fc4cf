package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"cardscan/internal/logger"
	"cardscan/pkg/models"
)

// SQLiteStore implements ContactStore on a local SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// New opens the contact database at dbPath, creating it if needed.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer. One pooled connection keeps concurrent
	// batch scans from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{
		db:  db,
		log: logger.WithComponent("contact-store"),
	}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	// Timestamps are stored as Unix nanoseconds so ordering stays exact.
	schema := `
	CREATE TABLE IF NOT EXISTS contacts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		company TEXT NOT NULL DEFAULT '',
		event_tag TEXT NOT NULL DEFAULT '',
		image_ref TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contacts_event_tag ON contacts(event_tag);
	CREATE INDEX IF NOT EXISTS idx_contacts_created_at ON contacts(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

const contactColumns = `id, name, phone, email, company, event_tag, image_ref, created_at, updated_at`

// Save inserts or updates a contact. Contacts without an ID get a generated
// UUID and a creation timestamp; UpdatedAt is refreshed on every save.
func (s *SQLiteStore) Save(ctx context.Context, contact *models.ContactRecord) error {
	now := time.Now()
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	contact.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts (`+contactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			email = excluded.email,
			company = excluded.company,
			event_tag = excluded.event_tag,
			image_ref = excluded.image_ref,
			updated_at = excluded.updated_at
	`, contact.ID, contact.Name, contact.Phone, contact.Email, contact.Company,
		contact.EventTag, contact.ImageRef, contact.CreatedAt.UnixNano(), contact.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save contact: %w", err)
	}

	s.log.Debug().
		Str("id", contact.ID).
		Str("name", contact.Name).
		Str("event_tag", contact.EventTag).
		Msg("Contact saved")
	return nil
}

// Get retrieves a contact by ID. Returns (nil, nil) when the ID is unknown.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.ContactRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+contactColumns+` FROM contacts WHERE id = ?
	`, id)

	contact, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query contact: %w", err)
	}
	return contact, nil
}

// List returns all contacts, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]*models.ContactRecord, error) {
	return s.queryContacts(ctx, `
		SELECT `+contactColumns+` FROM contacts
		ORDER BY created_at DESC, id
	`)
}

// ListByTag returns contacts captured under the given event tag, newest first.
func (s *SQLiteStore) ListByTag(ctx context.Context, tag string) ([]*models.ContactRecord, error) {
	return s.queryContacts(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE event_tag = ?
		ORDER BY created_at DESC, id
	`, tag)
}

// Search returns contacts whose name, email, company or phone contains the
// query, case-insensitively, newest first.
func (s *SQLiteStore) Search(ctx context.Context, query string) ([]*models.ContactRecord, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	return s.queryContacts(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE lower(name) LIKE ?
		   OR lower(email) LIKE ?
		   OR lower(company) LIKE ?
		   OR phone LIKE ?
		ORDER BY created_at DESC, id
	`, pattern, pattern, pattern, pattern)
}

// Delete removes a contact by ID. Returns ErrNotFound when the ID is unknown.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.log.Debug().Str("id", id).Msg("Contact deleted")
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) queryContacts(ctx context.Context, query string, args ...any) ([]*models.ContactRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*models.ContactRecord
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}

	return contacts, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*models.ContactRecord, error) {
	var (
		contact              models.ContactRecord
		createdNs, updatedNs int64
	)

	err := row.Scan(&contact.ID, &contact.Name, &contact.Phone, &contact.Email,
		&contact.Company, &contact.EventTag, &contact.ImageRef, &createdNs, &updatedNs)
	if err != nil {
		return nil, err
	}

	contact.CreatedAt = time.Unix(0, createdNs)
	contact.UpdatedAt = time.Unix(0, updatedNs)
	return &contact, nil
}
