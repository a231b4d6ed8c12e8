// Package stats summarises a finished build: counts per phase, scope
// resolution outcomes, phase timings and the most common terms.
package stats

import (
	"sort"
	"time"

	"github.com/Adithya-Monish-Kumar-K/webdex/internal/linker"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/related"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/scope"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/termindex"
)

// TermCount is a term with the number of distinct meanings it has.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Summary describes one build.
type Summary struct {
	BuildID    string               `json:"build_id"`
	CrawlTitle string               `json:"crawl_title,omitempty"`
	CrawlDate  string               `json:"crawl_date,omitempty"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Index      termindex.BuildStats `json:"index"`
	Terms      int                  `json:"terms"`
	Entries    int                  `json:"entries"`
	Links      linker.Stats         `json:"links"`
	Related    related.Stats        `json:"related"`
	Scopes     scope.Stats          `json:"scopes"`
	Pages      int                  `json:"pages"`
	PhasesMs   map[string]int64     `json:"phases_ms"`
	TopTerms   []TermCount          `json:"top_terms"`
}

// Duration is the wall time of the build.
func (s Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// TopTerms returns the n terms with the most entries, most first; ties are
// broken by term. n <= 0 returns every term.
func TopTerms(idx *termindex.Index, n int) []TermCount {
	terms := idx.Terms()
	result := make([]TermCount, 0, len(terms))
	for _, term := range terms {
		result = append(result, TermCount{Term: term, Count: idx.Meanings(term)})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	if n > 0 && len(result) > n {
		result = result[:n]
	}
	return result
}

// TermDelta compares two top-term lists and returns, for every term of
// current, how its count changed since previous. Terms new to current are
// reported with their full count.
func TermDelta(previous, current []TermCount) map[string]int {
	prev := make(map[string]int, len(previous))
	for _, tc := range previous {
		prev[tc.Term] = tc.Count
	}
	delta := make(map[string]int)
	for _, tc := range current {
		if d := tc.Count - prev[tc.Term]; d != 0 {
			delta[tc.Term] = d
		}
	}
	return delta
}
