// Package vcard implements a minimal vCard 3.0 codec for contact records.
//
// Encode and Decode form a semantic round trip: every non-empty field of an
// encoded record is reproduced by decoding, and a two-token display name
// survives the split into structured N components exactly. The codec also
// decodes vCards produced elsewhere (QR-code payloads, phone exports);
// unknown fields and malformed lines are skipped, never an error.
//
// Field precedence during decode follows document order for FN/N/ORG (a
// later N line overwrites an FN-derived name) while the first TEL and the
// first EMAIL win. Consumers should tolerate the non-standard X-EVENT-TAG
// extension and ignore unknown X- fields.
//
// Limitations:
//   - vCard 3.0 only; no line folding, no charset/encoding parameters
//   - Only FN, N, TEL, EMAIL, ORG and X-EVENT-TAG are interpreted
package vcard

import (
	"regexp"
	"strings"

	"cardscan/pkg/models"
)

var reLineBreaks = regexp.MustCompile(`[\r\n]+`)

// escaper applies the vCard value escaping rules in one pass: backslash,
// semicolon and comma gain a backslash escape, newlines become literal
// "\n", carriage returns disappear.
var escaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\n", `\n`,
	"\r", "",
)

// Encode serializes a record as a vCard 3.0 string with CRLF line endings.
// Empty fields are omitted; a nil or all-empty record yields the bare
// BEGIN/VERSION/END envelope. Encode never fails.
func Encode(rec *models.ContactRecord) string {
	if rec == nil {
		rec = &models.ContactRecord{}
	}

	lines := make([]string, 0, 8)
	lines = append(lines, "BEGIN:VCARD", "VERSION:3.0")

	if rec.Name != "" {
		lines = append(lines, "FN:"+escaper.Replace(rec.Name))
		lines = append(lines, structuredName(rec.Name))
	}
	if rec.Phone != "" {
		lines = append(lines, "TEL;TYPE=CELL:"+escaper.Replace(stripDialNoise(rec.Phone)))
	}
	if rec.Email != "" {
		lines = append(lines, "EMAIL;TYPE=INTERNET:"+escaper.Replace(rec.Email))
	}
	if rec.Company != "" {
		lines = append(lines, "ORG:"+escaper.Replace(rec.Company))
	}
	if rec.EventTag != "" {
		lines = append(lines, "X-EVENT-TAG:"+escaper.Replace(rec.EventTag))
	}

	lines = append(lines, "END:VCARD")
	return strings.Join(lines, "\r\n")
}

// structuredName renders the N line: family name first, then the remaining
// tokens as the given name. A single-token name fills only the family slot.
func structuredName(name string) string {
	tokens := strings.Fields(name)
	if len(tokens) >= 2 {
		last := tokens[len(tokens)-1]
		rest := strings.Join(tokens[:len(tokens)-1], " ")
		return "N:" + escaper.Replace(last) + ";" + escaper.Replace(rest) + ";;;"
	}
	return "N:" + escaper.Replace(name) + ";;;"
}

var dialNoise = strings.NewReplacer(" ", "", "(", "", ")", "", "-", "")

func stripDialNoise(phone string) string {
	return dialNoise.Replace(phone)
}

// Decode parses a vCard string into a contact record. It is total: blank
// lines, BEGIN/END markers and lines without a ':' separator are skipped,
// unknown fields ignored, and the worst possible outcome is an all-empty
// record.
func Decode(text string) *models.ContactRecord {
	rec := &models.ContactRecord{}

	for _, line := range reLineBreaks.Split(text, -1) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		upper := strings.ToUpper(line)
		if strings.HasPrefix(upper, "BEGIN") || strings.HasPrefix(upper, "END") {
			continue
		}

		sep := strings.Index(line, ":")
		if sep < 0 {
			continue
		}
		field := strings.ToUpper(line[:sep])
		value := line[sep+1:]
		if p := strings.Index(field, ";"); p >= 0 {
			field = field[:p]
		}

		switch field {
		case "FN":
			rec.Name = strings.TrimSpace(unescape(value))
		case "N":
			parts := strings.Split(value, ";")
			if len(parts) >= 2 {
				rec.Name = strings.TrimSpace(unescape(parts[1]) + " " + unescape(parts[0]))
			} else {
				rec.Name = strings.TrimSpace(unescape(parts[0]))
			}
		case "TEL":
			if rec.Phone == "" {
				rec.Phone = strings.TrimSpace(unescape(value))
			}
		case "EMAIL":
			if rec.Email == "" {
				rec.Email = strings.ToLower(strings.TrimSpace(unescape(value)))
			}
		case "ORG":
			rec.Company = strings.TrimSpace(unescape(value))
		case "X-EVENT-TAG":
			rec.EventTag = strings.TrimSpace(unescape(value))
		}
	}

	return rec
}

// IsContactPayload reports whether a decoded QR/barcode payload carries a
// vCard. Payloads without the marker are not contacts and should be
// ignored by callers.
func IsContactPayload(payload string) bool {
	return strings.Contains(strings.ToUpper(strings.TrimSpace(payload)), "BEGIN:VCARD")
}

// unescape reverses the value escaping in a single left-to-right scan, so
// an escaped backslash followed by a literal 'n' is not misread as a
// newline escape. Both \n and \N encode a newline.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case 'n', 'N':
			b.WriteByte('\n')
			i++
		case ',':
			b.WriteByte(',')
			i++
		case ';':
			b.WriteByte(';')
			i++
		case '\\':
			b.WriteByte('\\')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
