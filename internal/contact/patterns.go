package contact

import "regexp"

// Extraction and classification patterns, compiled once. Phone matching
// tries the strict North-American shape first and falls back to the loose
// grouped form; both feed the same field.
var (
	reEmail = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	// Optional country code, optional parenthesised area code, 3-3-4
	// grouping with '-', '.' or space separators.
	rePhonePrimary = regexp.MustCompile(`(?:\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

	// Loose fallback: two to four digit groups separated by '-', '.' or
	// space, two to four groups total. The separator is mandatory so bare
	// ZIP codes and street numbers stay out of the phone class.
	rePhoneLoose = regexp.MustCompile(`\+?\d{2,4}(?:[-.\s]\d{2,4}){1,3}`)

	reDigitRun  = regexp.MustCompile(`\d{7,}`)
	rePlusDigit = regexp.MustCompile(`\+\d`)

	reURL     = regexp.MustCompile(`(?i)(?:https?://|www\.)\S+`)
	reURLMark = regexp.MustCompile(`(?i)https?://|www\.`)

	reStateZip = regexp.MustCompile(`\b[A-Z]{2},?\s+\d{5}(?:-\d{4})?\b`)
	reZip      = regexp.MustCompile(`\b\d{5}\b`)

	// Everything a matched phone number can carry besides digits and '+'.
	reNonDial = regexp.MustCompile(`[^0-9+]`)
)
