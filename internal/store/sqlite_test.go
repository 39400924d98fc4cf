package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"cardscan/pkg/models"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestStore creates an in-memory SQLite store for testing
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// testContact builds an unsaved contact record
func testContact(name, phone, email, company, tag string) *models.ContactRecord {
	return &models.ContactRecord{
		Name:     name,
		Phone:    phone,
		Email:    email,
		Company:  company,
		EventTag: tag,
	}
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if expected != actual {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

// assertNotNil fails the test if the contact is nil
func assertNotNil(t *testing.T, contact *models.ContactRecord) {
	t.Helper()
	if contact == nil {
		t.Fatalf("expected non-nil contact")
	}
}

// assertNil fails the test if the contact is not nil
func assertNil(t *testing.T, contact *models.ContactRecord) {
	t.Helper()
	if contact != nil {
		t.Fatalf("expected nil contact, got %+v", contact)
	}
}

// ============================================================================
// Contact CRUD Tests
// ============================================================================

func TestSave(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	t.Run("save assigns ID and timestamps", func(t *testing.T) {
		contact := testContact("John Smith", "5551234567", "john@acme.com", "Acme Corporation", "")

		err := store.Save(ctx, contact)
		assertNoError(t, err)

		if contact.ID == "" {
			t.Fatal("expected ID to be assigned")
		}
		if contact.CreatedAt.IsZero() {
			t.Fatal("expected CreatedAt to be set")
		}
		if contact.UpdatedAt.IsZero() {
			t.Fatal("expected UpdatedAt to be set")
		}
	})

	t.Run("saved contact round-trips all fields", func(t *testing.T) {
		contact := testContact("Jane Doe", "4155552671", "jane@globex.com", "Globex Inc", "gitex-2026")
		contact.ImageRef = "cards/jane.jpg"
		assertNoError(t, store.Save(ctx, contact))

		retrieved, err := store.Get(ctx, contact.ID)
		assertNoError(t, err)
		assertNotNil(t, retrieved)

		assertEqual(t, contact.ID, retrieved.ID)
		assertEqual(t, "Jane Doe", retrieved.Name)
		assertEqual(t, "4155552671", retrieved.Phone)
		assertEqual(t, "jane@globex.com", retrieved.Email)
		assertEqual(t, "Globex Inc", retrieved.Company)
		assertEqual(t, "gitex-2026", retrieved.EventTag)
		assertEqual(t, "cards/jane.jpg", retrieved.ImageRef)
		assertEqual(t, contact.CreatedAt.UnixNano(), retrieved.CreatedAt.UnixNano())
	})

	t.Run("save with existing ID updates in place", func(t *testing.T) {
		contact := testContact("Bob Jones", "", "bob@example.com", "", "")
		assertNoError(t, store.Save(ctx, contact))
		originalCreated := contact.CreatedAt

		contact.Company = "Initech"
		assertNoError(t, store.Save(ctx, contact))

		retrieved, err := store.Get(ctx, contact.ID)
		assertNoError(t, err)
		assertEqual(t, "Initech", retrieved.Company)
		assertEqual(t, originalCreated.UnixNano(), retrieved.CreatedAt.UnixNano())

		// No duplicate row was created
		all, err := store.Search(ctx, "bob@example.com")
		assertNoError(t, err)
		assertEqual(t, 1, len(all))
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	t.Run("get existing contact", func(t *testing.T) {
		contact := testContact("John Smith", "", "", "", "")
		assertNoError(t, store.Save(ctx, contact))

		retrieved, err := store.Get(ctx, contact.ID)
		assertNoError(t, err)
		assertNotNil(t, retrieved)
		assertEqual(t, contact.ID, retrieved.ID)
	})

	t.Run("get non-existent contact returns nil", func(t *testing.T) {
		retrieved, err := store.Get(ctx, "nonexistent")
		assertNoError(t, err)
		assertNil(t, retrieved)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	names := []string{"First Person", "Second Person", "Third Person"}
	for i, name := range names {
		contact := testContact(name, "", "", "", "")
		contact.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		assertNoError(t, store.Save(ctx, contact))
	}

	t.Run("list returns all contacts newest first", func(t *testing.T) {
		contacts, err := store.List(ctx)
		assertNoError(t, err)
		assertEqual(t, 3, len(contacts))
		assertEqual(t, "Third Person", contacts[0].Name)
		assertEqual(t, "Second Person", contacts[1].Name)
		assertEqual(t, "First Person", contacts[2].Name)
	})

	t.Run("list on empty store", func(t *testing.T) {
		empty := newTestStore(t)
		contacts, err := empty.List(ctx)
		assertNoError(t, err)
		assertEqual(t, 0, len(contacts))
	})
}

func TestListByTag(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	tagged := []struct {
		name string
		tag  string
	}{
		{"Alice", "gitex-2026"},
		{"Bob", "gitex-2026"},
		{"Carol", "web-summit"},
		{"Dave", ""},
	}
	for _, tc := range tagged {
		assertNoError(t, store.Save(ctx, testContact(tc.name, "", "", "", tc.tag)))
	}

	t.Run("filter by tag", func(t *testing.T) {
		contacts, err := store.ListByTag(ctx, "gitex-2026")
		assertNoError(t, err)
		assertEqual(t, 2, len(contacts))
	})

	t.Run("unknown tag returns empty", func(t *testing.T) {
		contacts, err := store.ListByTag(ctx, "no-such-event")
		assertNoError(t, err)
		assertEqual(t, 0, len(contacts))
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	t.Run("delete existing contact", func(t *testing.T) {
		contact := testContact("Delete Me", "", "", "", "")
		assertNoError(t, store.Save(ctx, contact))

		assertNoError(t, store.Delete(ctx, contact.ID))

		retrieved, err := store.Get(ctx, contact.ID)
		assertNoError(t, err)
		assertNil(t, retrieved)
	})

	t.Run("delete non-existent contact returns ErrNotFound", func(t *testing.T) {
		err := store.Delete(ctx, "nonexistent")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

// ============================================================================
// Search Tests
// ============================================================================

func TestSearch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	contacts := []*models.ContactRecord{
		testContact("John Smith", "5551234567", "john.smith@acme.com", "Acme Corporation", ""),
		testContact("Jane Doe", "4155552671", "jane@globex.com", "Globex Inc", ""),
		testContact("Hans Meyer", "+49305551234", "hans@meyer-gmbh.de", "Meyer GmbH", ""),
	}
	for _, c := range contacts {
		assertNoError(t, store.Save(ctx, c))
	}

	t.Run("search by name is case-insensitive", func(t *testing.T) {
		results, err := store.Search(ctx, "JOHN")
		assertNoError(t, err)
		assertEqual(t, 1, len(results))
		assertEqual(t, "John Smith", results[0].Name)
	})

	t.Run("search by email substring", func(t *testing.T) {
		results, err := store.Search(ctx, "globex.com")
		assertNoError(t, err)
		assertEqual(t, 1, len(results))
		assertEqual(t, "Jane Doe", results[0].Name)
	})

	t.Run("search by company", func(t *testing.T) {
		results, err := store.Search(ctx, "gmbh")
		assertNoError(t, err)
		assertEqual(t, 1, len(results))
		assertEqual(t, "Hans Meyer", results[0].Name)
	})

	t.Run("search by phone digits", func(t *testing.T) {
		results, err := store.Search(ctx, "1234567")
		assertNoError(t, err)
		assertEqual(t, 1, len(results))
		assertEqual(t, "John Smith", results[0].Name)
	})

	t.Run("no match returns empty", func(t *testing.T) {
		results, err := store.Search(ctx, "nonexistent-query")
		assertNoError(t, err)
		assertEqual(t, 0, len(results))
	})
}

// ============================================================================
// Fuzzy Search Tests
// ============================================================================

func TestSearchFuzzy(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	contacts := []*models.ContactRecord{
		testContact("Jon Smith", "", "", "Initech", ""),
		testContact("Jonathan Smithers", "", "", "Hooli", ""),
		testContact("Maria Garcia", "", "", "Vandelay Industries", ""),
	}
	for _, c := range contacts {
		assertNoError(t, store.Save(ctx, c))
	}

	t.Run("abbreviated query matches name", func(t *testing.T) {
		results, err := store.SearchFuzzy(ctx, "jsmith")
		assertNoError(t, err)
		if len(results) == 0 {
			t.Fatal("expected at least one fuzzy match")
		}
	})

	t.Run("closest match ranks first", func(t *testing.T) {
		results, err := store.SearchFuzzy(ctx, "jon smith")
		assertNoError(t, err)
		if len(results) < 2 {
			t.Fatalf("expected both Smiths to match, got %d results", len(results))
		}
		assertEqual(t, "Jon Smith", results[0].Name)
	})

	t.Run("matches against company", func(t *testing.T) {
		results, err := store.SearchFuzzy(ctx, "vandelay")
		assertNoError(t, err)
		assertEqual(t, 1, len(results))
		assertEqual(t, "Maria Garcia", results[0].Name)
	})

	t.Run("no match returns empty", func(t *testing.T) {
		results, err := store.SearchFuzzy(ctx, "zzzzzz")
		assertNoError(t, err)
		assertEqual(t, 0, len(results))
	})
}

// ============================================================================
// Edge Cases
// ============================================================================

func TestSaveEmptyRecord(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// A card where inference found nothing still gets persisted; the owner
	// can fill fields in later.
	contact := &models.ContactRecord{}
	assertNoError(t, store.Save(ctx, contact))

	retrieved, err := store.Get(ctx, contact.ID)
	assertNoError(t, err)
	assertNotNil(t, retrieved)
	assertEqual(t, true, retrieved.IsEmpty())
}

func TestSequentialBatchInserts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// The single pooled connection serializes writers; all inserts succeed.
	for i := 0; i < 20; i++ {
		contact := testContact("Contact", "", "", "", "batch")
		assertNoError(t, store.Save(ctx, contact))
	}

	contacts, err := store.ListByTag(ctx, "batch")
	assertNoError(t, err)
	assertEqual(t, 20, len(contacts))
}
