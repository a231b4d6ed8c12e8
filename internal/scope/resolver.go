// Package scope resolves the "for" qualifier of a definition to the unique
// index entry it names. Resolution is a filtered search over the entries
// sharing the qualifier's term key; when no single candidate survives the
// qualifier is left unresolved and a diagnostic is logged.
package scope

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Adithya-Monish-Kumar-K/webdex/internal/dfntype"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/normalize"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/termindex"
)

// DefaultCacheSize is the number of resolutions memoised by default.
const DefaultCacheSize = 4096

// Outcome classifies one resolution.
type Outcome string

const (
	OutcomeResolved     Outcome = "resolved"
	OutcomeUnrecognized Outcome = "unrecognized"
	OutcomeUnmatched    Outcome = "unmatched"
	OutcomeAmbiguous    Outcome = "ambiguous"
)

// Outcomes lists every outcome, in reporting order.
var Outcomes = []Outcome{OutcomeResolved, OutcomeUnrecognized, OutcomeUnmatched, OutcomeAmbiguous}

// Stats counts distinct resolutions by outcome plus cache behaviour.
type Stats struct {
	Resolved     int64 `json:"resolved"`
	Unrecognized int64 `json:"unrecognized"`
	Unmatched    int64 `json:"unmatched"`
	Ambiguous    int64 `json:"ambiguous"`
	CacheHits    int64 `json:"cache_hits"`
	CacheMisses  int64 `json:"cache_misses"`
}

// ByOutcome returns the counter for o.
func (s Stats) ByOutcome(o Outcome) int64 {
	switch o {
	case OutcomeResolved:
		return s.Resolved
	case OutcomeUnrecognized:
		return s.Unrecognized
	case OutcomeUnmatched:
		return s.Unmatched
	case OutcomeAmbiguous:
		return s.Ambiguous
	}
	return 0
}

type options struct {
	cacheSize int
}

// Option is a functional option for NewResolver.
type Option func(*options)

// WithCacheSize sets the number of memoised resolutions. Zero or a negative
// size disables the cache.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

type result struct {
	target termindex.Target
	ok     bool
}

// Resolver answers scope queries against a fully built index. It is safe
// for concurrent use as long as the index is not modified.
type Resolver struct {
	idx    *termindex.Index
	cache  *lru.Cache[string, result]
	logger *slog.Logger

	resolved     atomic.Int64
	unrecognized atomic.Int64
	unmatched    atomic.Int64
	ambiguous    atomic.Int64
	hits         atomic.Int64
	misses       atomic.Int64
}

// NewResolver creates a Resolver over idx.
func NewResolver(idx *termindex.Index, opts ...Option) (*Resolver, error) {
	o := options{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	r := &Resolver{
		idx:    idx,
		logger: slog.Default().With("component", "scope-resolver"),
	}
	if o.cacheSize > 0 {
		cache, err := lru.New[string, result](o.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating resolution cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

// Resolve returns the entry named by the "for" qualifier forStr of a
// definition of type typ displayed as display and defined by dfns. For a
// hierarchical qualifier "outer/inner" the inner scope is returned; the
// outer one only narrows the search.
func (r *Resolver) Resolve(typ, forStr, display string, dfns []termindex.Definition) (termindex.Target, bool) {
	if forStr == "" {
		return termindex.Target{}, false
	}
	if r.cache == nil {
		res := r.resolve(typ, forStr, display, dfns)
		return res.target, res.ok
	}
	key := cacheKey(typ, forStr, display, dfns)
	if res, ok := r.cache.Get(key); ok {
		r.hits.Add(1)
		return res.target, res.ok
	}
	r.misses.Add(1)
	res := r.resolve(typ, forStr, display, dfns)
	r.cache.Add(key, res)
	return res.target, res.ok
}

// Stats returns the resolution counters.
func (r *Resolver) Stats() Stats {
	return Stats{
		Resolved:     r.resolved.Load(),
		Unrecognized: r.unrecognized.Load(),
		Unmatched:    r.unmatched.Load(),
		Ambiguous:    r.ambiguous.Load(),
		CacheHits:    r.hits.Load(),
		CacheMisses:  r.misses.Load(),
	}
}

// Index returns the index the resolver answers against.
func (r *Resolver) Index() *termindex.Index {
	return r.idx
}

func (r *Resolver) resolve(typ, forStr, display string, dfns []termindex.Definition) result {
	outer, inner := Split(forStr)
	info := dfntype.Lookup(typ)

	candidates := r.candidates(inner)
	if len(candidates) == 1 {
		return r.found(candidates[0])
	}

	matches := make([]*termindex.Entry, 0, len(candidates))
	for _, c := range candidates {
		if !c.NamedBy(inner) {
			continue
		}
		switch {
		case outer != "":
			if !c.HasFor(outer) {
				continue
			}
		case len(info.ParentTypes) > 0:
			if !info.AcceptsParent(c.Type) {
				continue
			}
		default:
			if len(c.For) != 0 {
				continue
			}
		}
		matches = append(matches, c)
	}
	if len(matches) == 1 {
		return r.found(matches[0])
	}

	if len(matches) > 1 {
		same := sameSpec(matches, dfns)
		if len(same) == 1 {
			return r.found(same[0])
		}
		r.ambiguous.Add(1)
		r.logger.Error("multiple candidates for scope",
			"scope", forStr,
			"expected_types", info.ParentTypes,
			"term", display,
			"type", typ,
			"candidates", targetIDs(matches),
		)
		return result{}
	}

	if len(candidates) == 0 {
		r.unrecognized.Add(1)
		r.logger.Error("unrecognized scope",
			"scope", inner,
			"term", display,
			"type", typ,
		)
		return result{}
	}
	r.unmatched.Add(1)
	r.logger.Error("unknown scope, no match",
		"scope", inner,
		"expected_types", info.ParentTypes,
		"term", display,
		"type", typ,
		"candidates", targetIDs(candidates),
	)
	return result{}
}

func (r *Resolver) found(e *termindex.Entry) result {
	r.resolved.Add(1)
	return result{target: e.Target(), ok: true}
}

// candidates returns the entries whose term key matches text, falling back
// to entries that have text as an alias. Both the case-preserving and the
// folded key are tried.
func (r *Resolver) candidates(text string) []*termindex.Entry {
	keys := normalize.Keys(text)
	var out []*termindex.Entry
	for _, key := range keys {
		out = append(out, r.idx.Entries(key)...)
	}
	if len(out) > 0 {
		return out
	}
	seen := make(map[termindex.Target]struct{})
	for _, key := range keys {
		for _, e := range r.idx.Aliases(key) {
			if _, dup := seen[e.Target()]; dup {
				continue
			}
			seen[e.Target()] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}

// Split separates a hierarchical qualifier "outer/inner". Qualifiers
// without a slash have an empty outer part; extra segments are ignored.
func Split(forStr string) (outer, inner string) {
	if !strings.Contains(forStr, "/") {
		return "", forStr
	}
	parts := strings.Split(forStr, "/")
	return parts[0], parts[1]
}

// sameSpec keeps the candidates defined in at least one of the specs that
// define dfns.
func sameSpec(candidates []*termindex.Entry, dfns []termindex.Definition) []*termindex.Entry {
	specs := make(map[string]struct{}, len(dfns))
	for _, d := range dfns {
		specs[d.Spec] = struct{}{}
	}
	var out []*termindex.Entry
	for _, c := range candidates {
		for _, d := range c.Dfns {
			if _, ok := specs[d.Spec]; ok {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func targetIDs(entries []*termindex.Entry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func cacheKey(typ, forStr, display string, dfns []termindex.Definition) string {
	specs := make([]string, 0, len(dfns))
	for _, d := range dfns {
		specs = append(specs, d.Spec)
	}
	sort.Strings(specs)
	var b strings.Builder
	b.WriteString(typ)
	b.WriteByte(0)
	b.WriteString(forStr)
	b.WriteByte(0)
	b.WriteString(display)
	b.WriteByte(0)
	b.WriteString(strings.Join(specs, "\x01"))
	return b.String()
}
