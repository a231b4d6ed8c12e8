// Package linker records, for every indexed definition, the specifications
// that link to it.
package linker

import (
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/webdex/internal/crawl"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/termindex"
)

// Stats counts the outbound link targets seen and how many hit a definition.
type Stats struct {
	Targets int `json:"targets"`
	Linked  int `json:"linked"`
}

// Link walks the outbound links of every spec in order and appends the
// spec to the references of each entry it links to. Links to anything that
// is not an indexed definition are skipped.
func Link(idx *termindex.Index, specs []crawl.Spec) Stats {
	logger := slog.Default().With("component", "reference-linker")
	var stats Stats
	for _, spec := range specs {
		ref := termindex.Ref{Title: spec.DisplayTitle(), URL: spec.DraftURL()}
		linked := 0
		for _, target := range spec.Links.Targets() {
			stats.Targets++
			t, ok := idx.Target(target)
			if !ok {
				continue
			}
			entry := idx.Get(t)
			if entry == nil {
				continue
			}
			entry.Refs = append(entry.Refs, ref)
			linked++
		}
		stats.Linked += linked
		logger.Debug("spec references linked", "spec", spec.Shortname, "linked", linked)
	}
	logger.Info("references linked", "targets", stats.Targets, "linked", stats.Linked)
	return stats
}
