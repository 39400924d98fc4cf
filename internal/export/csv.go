// Package export writes stored contacts to interchange formats.
//
// Two formats are supported: CSV for spreadsheets and CRM imports, and VCF
// (concatenated vCard 3.0 blocks) for phone address books.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"cardscan/pkg/models"
)

// contactRow is the flat CSV shape of a contact record.
// The tags become the header row (gocsv writes columns in field order).
type contactRow struct {
	ID        string `csv:"id"`
	Name      string `csv:"name"`
	Phone     string `csv:"phone"`
	Email     string `csv:"email"`
	Company   string `csv:"company"`
	EventTag  string `csv:"event_tag"`
	ImageRef  string `csv:"image_ref"`
	CreatedAt string `csv:"created_at"`
}

// WriteCSV writes contacts as CSV with a header row. An empty contact list
// still produces the header, so downstream imports see a valid file.
func WriteCSV(w io.Writer, contacts []*models.ContactRecord) error {
	rows := make([]contactRow, 0, len(contacts))
	for _, contact := range contacts {
		rows = append(rows, contactRow{
			ID:        contact.ID,
			Name:      contact.Name,
			Phone:     contact.Phone,
			Email:     contact.Email,
			Company:   contact.Company,
			EventTag:  contact.EventTag,
			ImageRef:  contact.ImageRef,
			CreatedAt: contact.CreatedAt.Format(time.RFC3339),
		})
	}

	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
