package store

import (
	"context"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"cardscan/pkg/models"
)

// SearchFuzzy returns contacts whose name, company or email approximately
// matches the query, best match first. Matching is case- and
// accent-insensitive and tolerates abbreviation: the query letters must
// appear in order, so "jsmith" finds "John Smith".
func (s *SQLiteStore) SearchFuzzy(ctx context.Context, query string) ([]*models.ContactRecord, error) {
	contacts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	type match struct {
		contact *models.ContactRecord
		rank    int
	}

	var matches []match
	for _, contact := range contacts {
		rank := bestRank(query, contact.Name, contact.Company, contact.Email)
		if rank < 0 {
			continue
		}
		matches = append(matches, match{contact: contact, rank: rank})
	}

	// Stable sort keeps the newest-first order among equally ranked matches.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].rank < matches[j].rank
	})

	results := make([]*models.ContactRecord, len(matches))
	for i, m := range matches {
		results[i] = m.contact
	}
	return results, nil
}

// bestRank returns the lowest Levenshtein rank of query against the given
// fields, or -1 when no field matches.
func bestRank(query string, fields ...string) int {
	best := -1
	for _, field := range fields {
		if field == "" {
			continue
		}
		rank := fuzzy.RankMatchNormalizedFold(query, field)
		if rank < 0 {
			continue
		}
		if best < 0 || rank < best {
			best = rank
		}
	}
	return best
}
