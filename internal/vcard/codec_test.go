package vcard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardscan/pkg/models"
)

func TestEncode(t *testing.T) {
	t.Run("all fields", func(t *testing.T) {
		rec := &models.ContactRecord{
			Name:     "Jane Doe",
			Phone:    "4155552671",
			Email:    "jane@acme.com",
			Company:  "Acme Inc",
			EventTag: "expo-2025",
		}

		card := Encode(rec)
		want := strings.Join([]string{
			"BEGIN:VCARD",
			"VERSION:3.0",
			"FN:Jane Doe",
			"N:Doe;Jane;;;",
			"TEL;TYPE=CELL:4155552671",
			"EMAIL;TYPE=INTERNET:jane@acme.com",
			"ORG:Acme Inc",
			"X-EVENT-TAG:expo-2025",
			"END:VCARD",
		}, "\r\n")
		assert.Equal(t, want, card)
	})

	t.Run("empty record yields bare envelope", func(t *testing.T) {
		card := Encode(&models.ContactRecord{})
		assert.Equal(t, "BEGIN:VCARD\r\nVERSION:3.0\r\nEND:VCARD", card)
	})

	t.Run("nil record", func(t *testing.T) {
		assert.Equal(t, "BEGIN:VCARD\r\nVERSION:3.0\r\nEND:VCARD", Encode(nil))
	})

	t.Run("multi token name splits family first", func(t *testing.T) {
		card := Encode(&models.ContactRecord{Name: "John Michael Doe"})
		assert.Contains(t, card, "FN:John Michael Doe")
		assert.Contains(t, card, "N:Doe;John Michael;;;")
	})

	t.Run("single token name fills family slot", func(t *testing.T) {
		card := Encode(&models.ContactRecord{Name: "Cher"})
		assert.Contains(t, card, "N:Cher;;;")
	})

	t.Run("phone noise stripped on emit", func(t *testing.T) {
		card := Encode(&models.ContactRecord{Phone: "+1 (415) 555-2671"})
		assert.Contains(t, card, "TEL;TYPE=CELL:+14155552671")
	})

	t.Run("reserved characters escaped", func(t *testing.T) {
		card := Encode(&models.ContactRecord{Company: `Smith; Sons, Inc\Co`})
		assert.Contains(t, card, `ORG:Smith\; Sons\, Inc\\Co`)
	})

	t.Run("newline in value becomes escape", func(t *testing.T) {
		card := Encode(&models.ContactRecord{Company: "Acme\r\nSecond Floor"})
		assert.Contains(t, card, `ORG:Acme\nSecond Floor`)
	})
}

func TestDecode(t *testing.T) {
	t.Run("full card", func(t *testing.T) {
		card := "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Jane Doe\r\nN:Doe;Jane;;;\r\n" +
			"TEL;TYPE=CELL:4155552671\r\nEMAIL;TYPE=INTERNET:jane@acme.com\r\n" +
			"ORG:Acme Inc\r\nX-EVENT-TAG:expo-2025\r\nEND:VCARD"

		rec := Decode(card)
		require.NotNil(t, rec)
		assert.Equal(t, "Jane Doe", rec.Name)
		assert.Equal(t, "4155552671", rec.Phone)
		assert.Equal(t, "jane@acme.com", rec.Email)
		assert.Equal(t, "Acme Inc", rec.Company)
		assert.Equal(t, "expo-2025", rec.EventTag)
	})

	t.Run("lf only line endings", func(t *testing.T) {
		rec := Decode("BEGIN:VCARD\nFN:Jane Doe\nORG:Acme\nEND:VCARD")
		assert.Equal(t, "Jane Doe", rec.Name)
		assert.Equal(t, "Acme", rec.Company)
	})

	t.Run("later N overwrites FN derived name", func(t *testing.T) {
		rec := Decode("BEGIN:VCARD\nFN:Jane Doe\nN:Smith;Bob;;;\nEND:VCARD")
		assert.Equal(t, "Bob Smith", rec.Name)
	})

	t.Run("N with single part", func(t *testing.T) {
		rec := Decode("BEGIN:VCARD\nN:Cher\nEND:VCARD")
		assert.Equal(t, "Cher", rec.Name)
	})

	t.Run("first TEL and EMAIL win", func(t *testing.T) {
		rec := Decode("BEGIN:VCARD\nTEL:111\nTEL:222\nEMAIL:a@a.com\nEMAIL:b@b.com\nEND:VCARD")
		assert.Equal(t, "111", rec.Phone)
		assert.Equal(t, "a@a.com", rec.Email)
	})

	t.Run("malformed line without colon is skipped", func(t *testing.T) {
		rec := Decode("BEGIN:VCARD\nFN:Jane Doe\nTHIS LINE HAS NO SEPARATOR\nORG:Acme\nEND:VCARD")
		assert.Equal(t, "Jane Doe", rec.Name)
		assert.Equal(t, "Acme", rec.Company)
	})

	t.Run("unknown fields ignored", func(t *testing.T) {
		rec := Decode("BEGIN:VCARD\nADR:;;123 Main St;;;;\nNOTE:met at expo\nX-OTHER:zzz\nFN:Jane Doe\nEND:VCARD")
		assert.Equal(t, "Jane Doe", rec.Name)
		assert.Empty(t, rec.Company)
		assert.Empty(t, rec.EventTag)
	})

	t.Run("field names are case insensitive", func(t *testing.T) {
		rec := Decode("begin:vcard\nfn:Jane Doe\ntel;type=cell:555\nend:vcard")
		assert.Equal(t, "Jane Doe", rec.Name)
		assert.Equal(t, "555", rec.Phone)
	})

	t.Run("email lower-cased on decode", func(t *testing.T) {
		rec := Decode("BEGIN:VCARD\nEMAIL:JANE@ACME.COM\nEND:VCARD")
		assert.Equal(t, "jane@acme.com", rec.Email)
	})

	t.Run("escaped separators inside values", func(t *testing.T) {
		rec := Decode(`BEGIN:VCARD` + "\n" + `ORG:Smith\; Sons\, Inc\\Co` + "\n" + `END:VCARD`)
		assert.Equal(t, `Smith; Sons, Inc\Co`, rec.Company)
	})

	t.Run("empty and junk input", func(t *testing.T) {
		assert.NotNil(t, Decode(""))
		assert.True(t, Decode("").IsEmpty())
		assert.True(t, Decode("no card here").IsEmpty())
	})
}

func TestRoundTrip(t *testing.T) {
	records := []*models.ContactRecord{
		{Name: "Jane Doe", Phone: "4155552671", Email: "jane@acme.com", Company: "Acme Inc", EventTag: "expo-2025"},
		{Name: "Cher"},
		{Email: "only@mail.com"},
		{Name: "John Michael Doe", Company: "Blue Sky Partners"},
		{},
	}

	for _, rec := range records {
		decoded := Decode(Encode(rec))
		assert.Equal(t, rec.Name, decoded.Name)
		assert.Equal(t, rec.Phone, decoded.Phone)
		assert.Equal(t, rec.Email, decoded.Email)
		assert.Equal(t, rec.Company, decoded.Company)
		assert.Equal(t, rec.EventTag, decoded.EventTag)
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`plain`, "plain"},
		{`a\nb`, "a\nb"},
		{`a\Nb`, "a\nb"},
		{`a\,b`, "a,b"},
		{`a\;b`, "a;b"},
		{`a\\b`, `a\b`},
		// escaped backslash followed by a literal n, not a newline
		{`a\\nb`, `a\nb`},
		{`trailing\`, `trailing\`},
		{`\\\\`, `\\`},
	}
	for _, tt := range tests {
		if got := unescape(tt.input); got != tt.expected {
			t.Errorf("unescape(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestIsContactPayload(t *testing.T) {
	assert.True(t, IsContactPayload("BEGIN:VCARD\nFN:X\nEND:VCARD"))
	assert.True(t, IsContactPayload("  \nbegin:vcard\nEND:VCARD"))
	assert.True(t, IsContactPayload("junk prefix BEGIN:VCARD"))
	assert.False(t, IsContactPayload("https://example.com/profile"))
	assert.False(t, IsContactPayload(""))
	assert.False(t, IsContactPayload("MECARD:N:Doe,Jane;;"))
}
