package contact

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"gopkg.in/yaml.v3"
)

// Built-in classifier vocabulary. Matching is case-insensitive; company and
// title entries match as substrings, street suffixes as whole words.
var (
	defaultCompanyKeywords = []string{
		"inc", "ltd", "llc", "corp", "pvt", "limited", "incorporated",
		"company", "co.", "group", "solutions", "systems", "services",
		"agency",
	}
	defaultTitleKeywords = []string{
		"agent", "manager", "director", "executive", "president", "ceo",
		"cfo", "cto", "vp", "vice president", "specialist", "consultant",
		"advisor", "representative", "assistant", "coordinator",
	}
	defaultStreetSuffixes = []string{
		"street", "st", "avenue", "ave", "road", "rd", "boulevard", "blvd",
		"drive", "dr", "lane", "ln", "way", "circle", "ct",
	}
)

// KeywordSet extends the built-in classifier vocabulary, typically loaded
// from a YAML file. Entries are added to the defaults; the defaults are
// never removed and rule order never changes.
type KeywordSet struct {
	Company []string `yaml:"company"`
	Title   []string `yaml:"title"`
	Street  []string `yaml:"street"`
}

// LoadKeywordSet reads a YAML keyword file. Unknown keys are rejected so a
// typo does not silently disable an extension. An empty file is valid.
func LoadKeywordSet(path string) (*KeywordSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keyword file: %w", err)
	}

	var ks KeywordSet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&ks); err != nil {
		if errors.Is(err, io.EOF) {
			return &KeywordSet{}, nil
		}
		return nil, fmt.Errorf("parsing keyword file %s: %w", path, err)
	}
	return &ks, nil
}

func defaultKeywordSet() *KeywordSet {
	return &KeywordSet{
		Company: append([]string(nil), defaultCompanyKeywords...),
		Title:   append([]string(nil), defaultTitleKeywords...),
		Street:  append([]string(nil), defaultStreetSuffixes...),
	}
}

func (k *KeywordSet) merge(extra *KeywordSet) {
	if extra == nil {
		return
	}
	k.Company = appendKeywords(k.Company, extra.Company)
	k.Title = appendKeywords(k.Title, extra.Title)
	k.Street = appendKeywords(k.Street, extra.Street)
}

// appendKeywords adds lower-cased, trimmed, deduplicated entries to base.
func appendKeywords(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, w := range base {
		seen[strings.ToLower(w)] = struct{}{}
	}
	for _, w := range extra {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		base = append(base, w)
	}
	return base
}

// keywordMatcher answers case-insensitive substring containment over a
// fixed keyword set in a single pass (Aho-Corasick). The underlying trie is
// immutable after construction, so a matcher is safe for concurrent use.
type keywordMatcher struct {
	matcher *ahocorasick.Matcher
}

func newKeywordMatcher(words []string) *keywordMatcher {
	patterns := make([][]byte, 0, len(words))
	for _, w := range words {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		patterns = append(patterns, []byte(w))
	}
	return &keywordMatcher{matcher: ahocorasick.NewMatcher(patterns)}
}

func (m *keywordMatcher) contains(line string) bool {
	return len(m.matcher.Match([]byte(strings.ToUpper(line)))) > 0
}

// buildWordMatcher compiles a whole-word alternation over the given words.
// Street suffixes need word boundaries: "st" must not hit "Fastest".
func buildWordMatcher(words []string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}
