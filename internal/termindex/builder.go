package termindex

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/webdex/internal/crawl"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/dfntype"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/normalize"
)

// ExclusivePrefix starts the id of unscoped definitions of exclusive types
// in place of a series name, so every spec defining them shares one entry.
const ExclusivePrefix = "@@"

// Options configures a Builder.
type Options struct {
	// MultipagePrefixes are href prefixes of specs also published as a
	// single page. Definitions under them are indexed under both URLs.
	MultipagePrefixes []string
}

// Option is a functional option for NewBuilder.
type Option func(*Options)

// WithMultipagePrefixes replaces the multipage href prefixes.
func WithMultipagePrefixes(prefixes ...string) Option {
	return func(o *Options) {
		o.MultipagePrefixes = prefixes
	}
}

// Builder groups crawled definitions into an Index. It is not safe for
// concurrent use.
type Builder struct {
	idx    *Index
	opts   Options
	logger *slog.Logger
}

// NewBuilder creates an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	o := Options{
		MultipagePrefixes: []string{
			"https://html.spec.whatwg.org/multipage/",
			"https://tc39.es/ecma262/multipage/",
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Builder{
		idx:    newIndex(),
		opts:   o,
		logger: slog.Default().With("component", "index-builder"),
	}
}

// AddSpec indexes every public definition of spec.
func (b *Builder) AddSpec(spec crawl.Spec) {
	b.idx.stats.Specs++
	for _, dfn := range spec.Dfns {
		if dfn.Private() {
			b.idx.stats.SkippedPrivate++
			continue
		}
		if dfntype.Skipped(dfn.Type) {
			b.idx.stats.SkippedArgument++
			continue
		}
		if len(dfn.LinkingText) == 0 {
			b.idx.stats.SkippedEmpty++
			b.logger.Debug("definition without linking text", "href", dfn.Href, "spec", spec.Shortname)
			continue
		}
		b.Add(Definition{
			LinkingText: dfn.LinkingText,
			Type:        dfn.Type,
			For:         dfn.For,
			Href:        dfn.Href,
			Spec:        spec.DisplayTitle(),
			Series:      spec.SeriesName(),
		})
	}
}

// Add indexes one definition and returns the entry it landed in, or nil
// when the definition has no linking text.
func (b *Builder) Add(def Definition) *Entry {
	if len(def.LinkingText) == 0 {
		b.idx.stats.SkippedEmpty++
		return nil
	}
	info := dfntype.Lookup(def.Type)
	term := normalize.ForType(def.LinkingText[0], def.Type)
	display := normalize.Display(def.LinkingText[0])

	scopes := append([]string(nil), def.For...)
	sort.Strings(scopes)
	def.For = scopes

	var id string
	var prefixes []string
	if len(scopes) == 0 {
		if info.Exclusive {
			id = ExclusivePrefix + def.Type
		} else {
			id = def.Series + "%%" + def.Type
		}
	} else {
		switch info.Prefix {
		case dfntype.PrefixConstructor:
			if term != "constructor()" {
				prefixes = []string{"new "}
			}
		case dfntype.PrefixMember:
			for _, s := range scopes {
				prefixes = append(prefixes, s+".")
			}
		}
		id = scopes[0] + "@" + def.Type
	}

	entries := b.idx.terms[term]
	if entries == nil {
		entries = make(map[string]*Entry)
		b.idx.terms[term] = entries
	}
	entry, ok := entries[id]
	if !ok {
		first := ""
		if len(prefixes) > 0 {
			first = prefixes[0]
		}
		entry = &Entry{
			Term:        term,
			ID:          id,
			DisplayTerm: display,
			Type:        def.Type,
			For:         scopes,
			Series:      def.Series,
			SortKey:     display + "-" + first,
		}
		entries[id] = entry
		b.idx.entryCount++
	}
	entry.Dfns = append(entry.Dfns, def)
	for _, p := range prefixes {
		if !containsString(entry.Prefixes, p) {
			entry.Prefixes = append(entry.Prefixes, p)
		}
	}
	b.idx.stats.Definitions++

	for _, alias := range def.LinkingText[1:] {
		key := normalize.ForType(alias, def.Type)
		if key == "" {
			continue
		}
		named := b.idx.aliases[key]
		if named == nil {
			named = make(map[Target]*Entry)
			b.idx.aliases[key] = named
		}
		named[entry.Target()] = entry
		b.idx.stats.Aliases++
	}

	if def.Href != "" {
		b.idx.hrefs[def.Href] = entry.Target()
		if single, ok := b.singlePageHref(def.Href); ok {
			b.idx.hrefs[single] = entry.Target()
		}
	}
	return entry
}

// Build returns the index. The builder must not be used afterwards.
func (b *Builder) Build() *Index {
	idx := b.idx
	b.idx = nil
	b.logger.Info("term index built",
		"specs", idx.stats.Specs,
		"definitions", idx.stats.Definitions,
		"terms", len(idx.terms),
		"entries", idx.entryCount,
		"aliases", len(idx.aliases),
		"hrefs", len(idx.hrefs),
		"skipped_private", idx.stats.SkippedPrivate,
		"skipped_argument", idx.stats.SkippedArgument,
	)
	return idx
}

// singlePageHref maps "<prefix>page.html#frag" to the single-page URL
// "<root>/#frag" for specs published both ways.
func (b *Builder) singlePageHref(href string) (string, bool) {
	for _, prefix := range b.opts.MultipagePrefixes {
		if !strings.HasPrefix(href, prefix) {
			continue
		}
		rest := href[len(prefix):]
		hash := strings.IndexByte(rest, '#')
		if hash <= 0 {
			return "", false
		}
		root := strings.TrimSuffix(prefix, "multipage/")
		return root + rest[hash:], true
	}
	return "", false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
