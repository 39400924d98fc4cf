package contact

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type lineKind string

const (
	kindEmail         lineKind = "email"
	kindPhone         lineKind = "phone"
	kindWebsite       lineKind = "website"
	kindAddress       lineKind = "address"
	kindCompany       lineKind = "company"
	kindTitle         lineKind = "title"
	kindName          lineKind = "name"
	kindNameOrCompany lineKind = "name_or_company"
	kindUnknown       lineKind = "unknown"
)

// classifiedLine tags one cleaned line of card text. Confidence is a fixed
// rule priority used for tie-breaking, not a probability.
type classifiedLine struct {
	Text       string
	Kind       lineKind
	Confidence int
}

// classifier tags lines by an ordered chain of content heuristics. The
// chain order is load-bearing: later rules assume earlier ones already
// consumed their cases (the name rule never re-checks for phone-likeness
// because the phone rule runs first). Do not reorder.
type classifier struct {
	companyKw *keywordMatcher
	titleKw   *keywordMatcher
	streetRe  *regexp.Regexp

	rules []func(line string) (lineKind, int, bool)
}

func newClassifier(ks *KeywordSet) *classifier {
	c := &classifier{
		companyKw: newKeywordMatcher(ks.Company),
		titleKw:   newKeywordMatcher(ks.Title),
		streetRe:  buildWordMatcher(ks.Street),
	}
	c.rules = []func(line string) (lineKind, int, bool){
		c.ruleEmail,
		c.rulePhone,
		c.ruleWebsite,
		c.ruleAddress,
		c.ruleCompany,
		c.ruleTitle,
		c.ruleName,
		c.ruleNameOrCompany,
	}
	return c
}

func (c *classifier) classify(line string) classifiedLine {
	for _, rule := range c.rules {
		if kind, confidence, ok := rule(line); ok {
			return classifiedLine{Text: line, Kind: kind, Confidence: confidence}
		}
	}
	return classifiedLine{Text: line, Kind: kindUnknown}
}

func (c *classifier) ruleEmail(line string) (lineKind, int, bool) {
	if strings.Contains(line, "@") || reEmail.MatchString(line) {
		return kindEmail, 10, true
	}
	return "", 0, false
}

func (c *classifier) rulePhone(line string) (lineKind, int, bool) {
	if strings.Contains(line, "+") || reDigitRun.MatchString(line) ||
		rePhonePrimary.MatchString(line) || rePhoneLoose.MatchString(line) {
		return kindPhone, 10, true
	}
	return "", 0, false
}

func (c *classifier) ruleWebsite(line string) (lineKind, int, bool) {
	lower := strings.ToLower(line)
	if reURL.MatchString(line) || strings.Contains(lower, "www.") ||
		strings.Contains(lower, ".com") || strings.Contains(lower, ".net") ||
		strings.Contains(lower, ".org") {
		return kindWebsite, 9, true
	}
	return "", 0, false
}

func (c *classifier) ruleAddress(line string) (lineKind, int, bool) {
	if reStateZip.MatchString(line) || reZip.MatchString(line) ||
		c.streetRe.MatchString(line) {
		return kindAddress, 8, true
	}
	return "", 0, false
}

func (c *classifier) ruleCompany(line string) (lineKind, int, bool) {
	if c.companyKw.contains(line) {
		return kindCompany, 10, true
	}
	return "", 0, false
}

// ruleTitle tags job-title lines. A real-estate title line is the odd one
// out: "Real Estate Agent" names the business, not the role, so it counts
// as a company with reduced confidence.
func (c *classifier) ruleTitle(line string) (lineKind, int, bool) {
	if !c.titleKw.contains(line) {
		return "", 0, false
	}
	lower := strings.ToLower(line)
	if strings.Contains(lower, "real estate") || strings.Contains(lower, "realestate") {
		return kindCompany, 8, true
	}
	return kindTitle, 7, true
}

func (c *classifier) ruleName(line string) (lineKind, int, bool) {
	tokens := strings.Fields(line)
	if len(tokens) == 2 && looksLikeProperName(line, tokens) {
		return kindName, 9, true
	}
	return "", 0, false
}

func (c *classifier) ruleNameOrCompany(line string) (lineKind, int, bool) {
	tokens := strings.Fields(line)
	if len(tokens) >= 2 && looksLikeProperName(line, tokens) {
		return kindNameOrCompany, 6, true
	}
	return "", 0, false
}

// looksLikeProperName: every token starts with an uppercase letter, no
// digit anywhere, and the whole line is 3-40 characters.
func looksLikeProperName(line string, tokens []string) bool {
	if len(line) < 3 || len(line) > 40 {
		return false
	}
	if strings.ContainsAny(line, "0123456789") {
		return false
	}
	for _, tok := range tokens {
		r, _ := utf8.DecodeRuneInString(tok)
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
