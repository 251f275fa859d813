// Package index builds an in-memory keyword index over corpus sections and
// answers ranked queries against it.
package index

import (
	"sort"

	"github.com/dgallion1/qaindex/internal/document"
)

// Index maps tokens to the IDs of the sections containing them. It is
// immutable after Build and safe for concurrent use.
type Index struct {
	postings map[string][]int
	sections []*document.Section
	byID     map[int]*document.Section
}

// Build indexes every token in each section's heading line(s) and body.
// headingSource returns the raw heading text for a section; when nil the
// plain Heading is used. Section IDs must be unique.
func Build(sections []*document.Section, headingSource func(*document.Section) string) *Index {
	idx := &Index{
		postings: make(map[string][]int),
		sections: append([]*document.Section(nil), sections...),
		byID:     make(map[int]*document.Section, len(sections)),
	}
	sort.SliceStable(idx.sections, func(i, j int) bool {
		return idx.sections[i].ID < idx.sections[j].ID
	})

	for _, s := range idx.sections {
		idx.byID[s.ID] = s
		heading := s.Heading
		if headingSource != nil {
			heading = headingSource(s)
		}
		seen := make(map[string]bool)
		for _, text := range []string{heading, s.Body} {
			for _, tok := range Tokenize(text) {
				if seen[tok] {
					continue
				}
				seen[tok] = true
				// Sections are visited in ascending ID order, so each
				// posting list stays sorted.
				idx.postings[tok] = append(idx.postings[tok], s.ID)
			}
		}
	}
	return idx
}

// Lookup returns the ascending section IDs containing token. The token is
// normalized the same way as indexed text.
func (idx *Index) Lookup(token string) []int {
	toks := Tokenize(token)
	if len(toks) != 1 {
		return nil
	}
	ids := idx.postings[toks[0]]
	return append([]int(nil), ids...)
}

// Section returns the indexed section with the given ID.
func (idx *Index) Section(id int) (*document.Section, bool) {
	s, ok := idx.byID[id]
	return s, ok
}

// Tokens returns every indexed token, sorted.
func (idx *Index) Tokens() []string {
	out := make([]string, 0, len(idx.postings))
	for tok := range idx.postings {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of distinct indexed tokens.
func (idx *Index) Len() int {
	return len(idx.postings)
}

// Sections returns the number of indexed sections.
func (idx *Index) Sections() int {
	return len(idx.sections)
}
