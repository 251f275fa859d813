package index

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/qaindex/internal/document"
)

// Mode selects how query tokens combine.
type Mode string

const (
	// ModeAny matches sections containing at least one query token.
	ModeAny Mode = "any"
	// ModeAll matches sections containing every query token.
	ModeAll Mode = "all"
)

// ParseMode parses a mode name. The empty string selects ModeAny.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAny:
		return ModeAny, nil
	case ModeAll:
		return ModeAll, nil
	default:
		return "", fmt.Errorf("invalid query mode %q (want %q or %q)", s, ModeAny, ModeAll)
	}
}

// Hit is a ranked query match.
type Hit struct {
	Section  *document.Section
	Score    int     // Distinct query tokens found in the section
	Coverage float64 // Score divided by the number of distinct query tokens
}

// Search returns sections matching the query, ranked by score descending.
// Equal scores put malformed sections last, then order by section ID.
// limit <= 0 returns every match.
func (idx *Index) Search(query string, mode Mode, limit int) []Hit {
	tokens := uniqueTokens(query)
	if len(tokens) == 0 {
		return []Hit{}
	}

	scores := make(map[int]int)
	for _, tok := range tokens {
		for _, id := range idx.postings[tok] {
			scores[id]++
		}
	}

	hits := make([]Hit, 0, len(scores))
	for id, score := range scores {
		if mode == ModeAll && score != len(tokens) {
			continue
		}
		hits = append(hits, Hit{
			Section:  idx.byID[id],
			Score:    score,
			Coverage: float64(score) / float64(len(tokens)),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Section.Malformed != b.Section.Malformed {
			return !a.Section.Malformed
		}
		return a.Section.ID < b.Section.ID
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
