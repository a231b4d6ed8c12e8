// Package termindex groups the definitions of a crawl into term entries
// keyed by (normalized term, disambiguation id), together with the alias
// and href indexes used for scope resolution and reference linking.
package termindex

import "sort"

// BuildStats counts what the builder saw.
type BuildStats struct {
	Specs           int `json:"specs"`
	Definitions     int `json:"definitions"`
	SkippedPrivate  int `json:"skipped_private"`
	SkippedArgument int `json:"skipped_argument"`
	SkippedEmpty    int `json:"skipped_empty"`
	Aliases         int `json:"aliases"`
}

// Index is the populated term index. The set of terms and entries is fixed
// once built; later phases only append references and related terms.
type Index struct {
	terms      map[string]map[string]*Entry
	aliases    map[string]map[Target]*Entry
	hrefs      map[string]Target
	entryCount int
	stats      BuildStats
}

func newIndex() *Index {
	return &Index{
		terms:   make(map[string]map[string]*Entry),
		aliases: make(map[string]map[Target]*Entry),
		hrefs:   make(map[string]Target),
	}
}

// Terms returns every term key in sorted order.
func (ix *Index) Terms() []string {
	terms := make([]string, 0, len(ix.terms))
	for t := range ix.terms {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// Entries returns the entries of term ordered by sort key, then id.
func (ix *Index) Entries(term string) []*Entry {
	byID := ix.terms[term]
	entries := make([]*Entry, 0, len(byID))
	for _, e := range byID {
		entries = append(entries, e)
	}
	sortEntries(entries)
	return entries
}

// Meanings returns the number of entries of term.
func (ix *Index) Meanings(term string) int {
	return len(ix.terms[term])
}

// Entry returns the entry (term, id) or nil.
func (ix *Index) Entry(term, id string) *Entry {
	return ix.terms[term][id]
}

// Get returns the entry t points at or nil.
func (ix *Index) Get(t Target) *Entry {
	return ix.Entry(t.Term, t.ID)
}

// HasTerm reports whether term has at least one entry.
func (ix *Index) HasTerm(term string) bool {
	return len(ix.terms[term]) > 0
}

// Aliases returns the entries a secondary linking text key names, ordered
// by term then id.
func (ix *Index) Aliases(key string) []*Entry {
	named := ix.aliases[key]
	entries := make([]*Entry, 0, len(named))
	for _, e := range named {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Term != entries[j].Term {
			return entries[i].Term < entries[j].Term
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

// Target returns the entry defined at href.
func (ix *Index) Target(href string) (Target, bool) {
	t, ok := ix.hrefs[href]
	return t, ok
}

// Len returns the number of distinct terms.
func (ix *Index) Len() int {
	return len(ix.terms)
}

// EntryCount returns the number of entries across all terms.
func (ix *Index) EntryCount() int {
	return ix.entryCount
}

// Stats returns the builder counters.
func (ix *Index) Stats() BuildStats {
	return ix.stats
}

// Walk calls fn for every entry in term order, then entry order.
func (ix *Index) Walk(fn func(*Entry)) {
	for _, term := range ix.Terms() {
		for _, e := range ix.Entries(term) {
			fn(e)
		}
	}
}

func sortEntries(entries []*Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SortKey != entries[j].SortKey {
			return entries[i].SortKey < entries[j].SortKey
		}
		return entries[i].ID < entries[j].ID
	})
}
