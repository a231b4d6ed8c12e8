package scope

import "github.com/Adithya-Monish-Kumar-K/webdex/internal/termindex"

// Qualifier is a "for" qualifier as it is rendered: its text, the entry it
// resolved to (if any) and, for "outer/inner" qualifiers, the outer part.
type Qualifier struct {
	Text     string
	Target   termindex.Target
	Resolved bool
	Outer    *Qualifier
}

// Equal reports whether q and o render the same way.
func (q Qualifier) Equal(o Qualifier) bool {
	if q.Resolved != o.Resolved {
		return false
	}
	if q.Resolved {
		if q.Target != o.Target {
			return false
		}
	} else if q.Text != o.Text {
		return false
	}
	if (q.Outer == nil) != (o.Outer == nil) {
		return false
	}
	return q.Outer == nil || q.Outer.Equal(*o.Outer)
}

// Qualify resolves forStr for display. The inner scope of "outer/inner" is
// resolved first; the outer scope is then resolved as the scope of the
// inner entry itself. Parts that do not resolve stay plain text.
func (r *Resolver) Qualify(typ, forStr, display string, dfns []termindex.Definition) Qualifier {
	outer, inner := Split(forStr)
	target, ok := r.Resolve(typ, forStr, display, dfns)
	q := Qualifier{Text: inner, Target: target, Resolved: ok}
	if outer == "" {
		return q
	}
	q.Outer = &Qualifier{Text: outer}
	if !ok {
		return q
	}
	entry := r.idx.Get(target)
	if entry == nil {
		return q
	}
	if ot, ook := r.Resolve(entry.Type, outer, entry.DisplayTerm, entry.Dfns); ook {
		q.Outer.Target = ot
		q.Outer.Resolved = true
	}
	return q
}

// QualifyAll qualifies every "for" string of e and drops duplicates, keeping
// the first occurrence.
func (r *Resolver) QualifyAll(e *termindex.Entry) []Qualifier {
	out := make([]Qualifier, 0, len(e.For))
	for _, f := range e.For {
		q := r.Qualify(e.Type, f, e.DisplayTerm, e.Dfns)
		dup := false
		for _, prev := range out {
			if prev.Equal(q) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, q)
		}
	}
	return out
}
