// Package contact turns raw OCR text from a photographed business card into
// a structured contact record.
//
// The pipeline is deterministic and rule-based: Normalize scrubs scanner
// artifacts, an ordered classifier tags each line by content heuristics, and
// the parser resolves the best name/phone/email/company candidates. No
// layout or bounding-box information is used; line order is the only
// structure available. Fields that cannot be resolved stay empty; an
// all-empty record is valid output and means "ask the user".
//
// Environment variables:
//   - KEYWORDS_FILE: optional YAML file extending the classifier keyword sets
//
// Limitations:
//   - Latin-script, ASCII-centric input only; non-ASCII is treated as noise
//   - Classification keywords are English
//   - Confidences are fixed rule priorities, not probabilities
package contact

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"cardscan/internal/logger"
	"cardscan/pkg/models"
)

// Parser is the text-to-contact inference engine. It holds only immutable
// compiled state and is safe for concurrent use; every Infer call allocates
// its own working set.
type Parser struct {
	classifier *classifier
	log        zerolog.Logger
}

// NewParser creates a parser with the built-in keyword sets.
func NewParser() *Parser {
	return NewParserWithKeywords(nil)
}

// NewParserWithKeywords creates a parser whose classifier vocabulary is
// extended by the given set. A nil set yields the defaults.
func NewParserWithKeywords(extra *KeywordSet) *Parser {
	ks := defaultKeywordSet()
	ks.merge(extra)
	return &Parser{
		classifier: newClassifier(ks),
		log:        logger.WithComponent("contact-parser"),
	}
}

// Infer extracts a contact record from raw OCR text. It is total over the
// string domain: any input, including empty, pure-whitespace or adversarial
// strings, yields a record and never an error or panic. EventTag is never
// inferred; callers set it.
func (p *Parser) Infer(raw string) (rec *models.ContactRecord) {
	rec = &models.ContactRecord{}
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn().Interface("cause", r).Msg("Inference aborted, returning empty record")
			rec = &models.ContactRecord{}
		}
	}()

	text := Normalize(raw)
	if text == "" {
		return rec
	}

	if m := reEmail.FindString(text); m != "" {
		rec.Email = strings.ToLower(m)
	}
	rec.Phone = extractPhone(text)

	lines := splitLines(text)
	if len(lines) == 1 && len(lines[0]) > 50 {
		// OCR flattened a multi-column card into one long line.
		if segments := splitFlattenedLine(lines[0]); len(segments) >= 2 {
			p.log.Debug().Int("segments", len(segments)).
				Msg("Recovered line structure from flattened OCR output")
			lines = segments
		}
	}

	classified := make([]classifiedLine, 0, len(lines))
	for _, line := range lines {
		cl := p.classifier.classify(line)
		p.log.Debug().
			Str("kind", string(cl.Kind)).
			Int("confidence", cl.Confidence).
			Str("text", cl.Text).
			Msg("Classified line")
		classified = append(classified, cl)
	}

	rec.Name = resolveName(classified)
	rec.Company = resolveCompany(classified, rec.Name)

	rec.Name = Normalize(rec.Name)
	rec.Company = Normalize(rec.Company)
	rec.Email = strings.TrimSpace(strings.ToLower(rec.Email))
	rec.Phone = stripPhoneSeparators(rec.Phone)
	return rec
}

// extractPhone returns the first dialable number in the text, trying the
// strict pattern before the loose one.
func extractPhone(text string) string {
	m := rePhonePrimary.FindString(text)
	if m == "" {
		m = rePhoneLoose.FindString(text)
	}
	return stripPhoneSeparators(m)
}

// stripPhoneSeparators reduces a matched number to digits with an optional
// leading '+'. A leading +1 country code is dropped.
func stripPhoneSeparators(s string) string {
	if s == "" {
		return ""
	}
	cleaned := reNonDial.ReplaceAllString(s, "")
	return strings.TrimPrefix(cleaned, "+1")
}

// splitLines breaks normalized text on newlines, re-normalizing each line
// and dropping empties.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = Normalize(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// splitFlattenedLine re-introduces line breaks into a single overlong line,
// cutting where an email, a phone number (or bare +digit), or a URL begins.
// Returns nil when no cut point exists.
func splitFlattenedLine(line string) []string {
	offsets := make([]int, 0, 3)
	if loc := reEmail.FindStringIndex(line); loc != nil {
		offsets = append(offsets, loc[0])
	}
	if off := findPhoneStart(line); off >= 0 {
		offsets = append(offsets, off)
	}
	if loc := reURLMark.FindStringIndex(line); loc != nil {
		offsets = append(offsets, loc[0])
	}
	if len(offsets) == 0 {
		return nil
	}
	sort.Ints(offsets)

	segments := make([]string, 0, len(offsets)+1)
	prev := 0
	for _, off := range offsets {
		if off > prev {
			if seg := strings.TrimSpace(line[prev:off]); seg != "" {
				segments = append(segments, seg)
			}
		}
		prev = off
	}
	if seg := strings.TrimSpace(line[prev:]); seg != "" {
		segments = append(segments, seg)
	}
	return segments
}

func findPhoneStart(line string) int {
	if loc := rePhonePrimary.FindStringIndex(line); loc != nil {
		return loc[0]
	}
	if loc := rePlusDigit.FindStringIndex(line); loc != nil {
		return loc[0]
	}
	return -1
}

// resolveName prefers a high-confidence two-token name line, then any
// name-or-company candidate.
func resolveName(lines []classifiedLine) string {
	for _, cl := range lines {
		if cl.Kind == kindName && cl.Confidence >= 9 {
			return cl.Text
		}
	}
	for _, cl := range lines {
		if cl.Kind == kindNameOrCompany && cl.Confidence >= 6 {
			return cl.Text
		}
	}
	return ""
}

// resolveCompany prefers a strong company line, then a title line, then the
// first name-or-company candidate that was not already taken as the name.
func resolveCompany(lines []classifiedLine, name string) string {
	for _, cl := range lines {
		if cl.Kind == kindCompany && cl.Confidence >= 8 {
			return cl.Text
		}
	}
	for _, cl := range lines {
		if cl.Kind == kindTitle && cl.Confidence >= 7 {
			return cl.Text
		}
	}
	for _, cl := range lines {
		if cl.Kind == kindNameOrCompany && cl.Confidence >= 6 && cl.Text != name {
			return cl.Text
		}
	}
	// Relaxed sweep for anything title-shaped that the strict passes missed.
	for _, cl := range lines {
		if cl.Kind == kindTitle || (cl.Kind == kindCompany && cl.Confidence >= 7) {
			return cl.Text
		}
	}
	return ""
}
