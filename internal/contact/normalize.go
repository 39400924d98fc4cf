package contact

import (
	"regexp"
	"strings"
)

var (
	// Unicode dash variants (hyphen, non-breaking hyphen, figure/en/em dash,
	// horizontal bar, minus sign, small and fullwidth forms).
	reDashVariants = regexp.MustCompile(`[\x{2010}-\x{2015}\x{2212}\x{FE58}\x{FE63}\x{FF0D}]`)

	// Characters that are never legitimate at the very start or end of a
	// scan. Letters, digits, '@', '.', '+', whitespace and '-' are allowed.
	reEdgeNoise = regexp.MustCompile(`^[^A-Za-z0-9@.+\s-]+|[^A-Za-z0-9@.+\s-]+$`)

	// Punctuation the OCR engine hallucinates around logos and card borders.
	// '+' stays out of this class: it carries phone country codes.
	reGarbageRuns = regexp.MustCompile(`[{}>\])(_=•|\\/~]+`)

	reDashRuns   = regexp.MustCompile(`[-_]{2,}`)
	reMultiSpace = regexp.MustCompile(`\s{2,}`)
	reNonASCII   = regexp.MustCompile(`[^\x00-\x7F]+`)
	reDisallowed = regexp.MustCompile(`[^\w\s@.+,-]`)
)

// Normalize scrubs raw OCR output into a canonical, parseable string.
// Lossy and conservative: it favors stripping noise over preserving
// ambiguous punctuation. A single line break survives so callers can still
// split on newlines; any longer whitespace run collapses to one space.
// Empty input yields empty output; the function never fails.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reDashVariants.ReplaceAllString(s, "-")
	s = reEdgeNoise.ReplaceAllString(s, "")
	s = reGarbageRuns.ReplaceAllString(s, " ")
	s = reDashRuns.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reNonASCII.ReplaceAllString(s, " ")
	s = reDisallowed.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
