package export

import (
	"fmt"
	"io"

	"cardscan/internal/vcard"
	"cardscan/pkg/models"
)

// WriteVCF writes contacts as back-to-back vCard 3.0 blocks, the multi-card
// .vcf layout address books import directly.
func WriteVCF(w io.Writer, contacts []*models.ContactRecord) error {
	for i, contact := range contacts {
		if _, err := io.WriteString(w, vcard.Encode(contact)); err != nil {
			return fmt.Errorf("failed to write contact %d: %w", i, err)
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return fmt.Errorf("failed to write contact %d: %w", i, err)
		}
	}
	return nil
}
