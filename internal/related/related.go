// Package related builds the back references from a scope entry (an
// interface, an at-rule, an element) to the entries defined "for" it.
package related

import (
	"log/slog"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/webdex/internal/dfntype"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/scope"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/termindex"
)

// Stats counts related links added and qualifiers left unresolved.
type Stats struct {
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
	Unresolved int `json:"unresolved"`
}

// Aggregate resolves every "for" qualifier of every entry and records the
// entry on the resolved scope. Entries are visited in term, then entry
// order, so related lists come out the same on every run.
func Aggregate(idx *termindex.Index, resolver *scope.Resolver) Stats {
	var stats Stats
	idx.Walk(func(e *termindex.Entry) {
		for _, f := range e.For {
			t, ok := resolver.Resolve(e.Type, f, e.DisplayTerm, e.Dfns)
			if !ok {
				stats.Unresolved++
				continue
			}
			parent := idx.Get(t)
			if parent == nil {
				stats.Unresolved++
				continue
			}
			if parent.AddRelated(e.Target()) {
				stats.Added++
			} else {
				stats.Duplicates++
			}
		}
	})
	slog.Default().With("component", "related-aggregator").Info("related terms aggregated",
		"added", stats.Added,
		"duplicates", stats.Duplicates,
		"unresolved", stats.Unresolved,
	)
	return stats
}

// Sort returns refs ordered by area, then type, then term.
func Sort(idx *termindex.Index, refs []termindex.Target) []termindex.Target {
	out := append([]termindex.Target(nil), refs...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := idx.Get(out[i]), idx.Get(out[j])
		if a == nil || b == nil {
			return a != nil
		}
		areaA, areaB := dfntype.Lookup(a.Type).Area, dfntype.Lookup(b.Type).Area
		if areaA != areaB {
			return areaA < areaB
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return out[i].Term < out[j].Term
	})
	return out
}
