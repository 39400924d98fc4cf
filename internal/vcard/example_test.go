package vcard_test

import (
	"fmt"
	"strings"

	"cardscan/internal/vcard"
	"cardscan/pkg/models"
)

// ExampleEncode shows the wire shape of an encoded contact.
func ExampleEncode() {
	rec := &models.ContactRecord{
		Name:     "Jane Doe",
		Phone:    "+1 (415) 555-2671",
		Email:    "jane@acme.com",
		Company:  "Acme Inc",
		EventTag: "expo-2025",
	}

	for _, line := range strings.Split(vcard.Encode(rec), "\r\n") {
		fmt.Println(line)
	}
	// Output:
	// BEGIN:VCARD
	// VERSION:3.0
	// FN:Jane Doe
	// N:Doe;Jane;;;
	// TEL;TYPE=CELL:+14155552671
	// EMAIL;TYPE=INTERNET:jane@acme.com
	// ORG:Acme Inc
	// X-EVENT-TAG:expo-2025
	// END:VCARD
}

// ExampleDecode parses a payload recovered from a QR code.
func ExampleDecode() {
	payload := "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:John Smith\r\nORG:Widgets LLC\r\nEND:VCARD"

	if !vcard.IsContactPayload(payload) {
		fmt.Println("not a contact")
		return
	}
	rec := vcard.Decode(payload)
	fmt.Println(rec.Name)
	fmt.Println(rec.Company)
	// Output:
	// John Smith
	// Widgets LLC
}
