package catalog

import (
	"sort"
	"strings"

	"github.com/tana/tana/internal/library/normalize"
)

// DefaultSearchLimit caps interactive search results.
const DefaultSearchLimit = 10

// Search returns entries whose key contains the query, either raw or
// normalized. Entries whose normalized name starts with the normalized query
// come first, then the rest alphabetically.
func (s *Snapshot) Search(query string, limit int) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Entry{}
	}
	qNorm := normalize.Normalize(query)

	type hit struct {
		entry  Entry
		prefix bool
		sortBy string
	}

	seen := make(map[string]struct{})
	hits := make([]hit, 0)
	for _, key := range s.keys {
		if !strings.Contains(key, q) && !strings.Contains(s.norms[key], qNorm) {
			continue
		}
		for _, e := range s.entries[key] {
			uid := e.Name + "|" + e.Destination
			if _, dup := seen[uid]; dup {
				continue
			}
			seen[uid] = struct{}{}
			hits = append(hits, hit{
				entry:  e,
				prefix: strings.HasPrefix(normalize.Normalize(e.Name), qNorm),
				sortBy: strings.ToLower(e.Name),
			})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].prefix != hits[j].prefix {
			return hits[i].prefix
		}
		return hits[i].sortBy < hits[j].sortBy
	})

	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	results := make([]Entry, 0, min(limit, len(hits)))
	for i := 0; i < len(hits) && i < limit; i++ {
		results = append(results, hits[i].entry)
	}
	return results
}
