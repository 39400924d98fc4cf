// Package store persists scanned contacts in a local SQLite database.
//
// The database lives in a single file (CARDSCAN_DB, default contacts.db) and
// uses a pure Go driver, so the binary stays free of cgo.
package store

import (
	"context"
	"errors"

	"cardscan/pkg/models"
)

// ErrNotFound is returned when a contact ID does not exist.
var ErrNotFound = errors.New("contact not found")

// ContactStore defines the persistence interface for scanned contacts.
type ContactStore interface {
	// Save inserts or updates a contact. Contacts without an ID get a
	// generated one plus creation and update timestamps.
	Save(ctx context.Context, contact *models.ContactRecord) error

	// Get retrieves a contact by ID. Returns (nil, nil) when the ID is unknown.
	Get(ctx context.Context, id string) (*models.ContactRecord, error)

	// List returns all contacts, newest first.
	List(ctx context.Context) ([]*models.ContactRecord, error)

	// ListByTag returns contacts captured under the given event tag, newest first.
	ListByTag(ctx context.Context, tag string) ([]*models.ContactRecord, error)

	// Search returns contacts whose name, email, company or phone contains
	// the query, case-insensitively, newest first.
	Search(ctx context.Context, query string) ([]*models.ContactRecord, error)

	// SearchFuzzy returns contacts whose name or company approximately
	// matches the query, best match first.
	SearchFuzzy(ctx context.Context, query string) ([]*models.ContactRecord, error)

	// Delete removes a contact by ID. Returns ErrNotFound when the ID is unknown.
	Delete(ctx context.Context, id string) error

	// Close releases the underlying database handle.
	Close() error
}
