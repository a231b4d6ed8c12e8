package termindex

import "github.com/Adithya-Monish-Kumar-K/webdex/internal/dfntype"

// Definition is one occurrence of a term being defined by a specification.
type Definition struct {
	LinkingText []string
	Type        string
	For         []string
	Href        string
	// Spec is the short title of the defining specification.
	Spec string
	// Series is the series shortname of the defining specification.
	Series string
}

// Ref is a specification that links to an entry.
type Ref struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Target identifies one entry of the index.
type Target struct {
	Term string `json:"term"`
	ID   string `json:"id"`
}

// IsZero reports whether t names nothing.
func (t Target) IsZero() bool {
	return t.Term == "" && t.ID == ""
}

// Entry aggregates every definition of one meaning of a term.
type Entry struct {
	Term        string
	ID          string
	DisplayTerm string
	Type        string
	// For is the sorted scope list of the first definition seen.
	For      []string
	Dfns     []Definition
	Prefixes []string
	Refs     []Ref
	Related  []Target
	SortKey  string
	// Series is the series shortname of the first definition seen.
	Series string
}

// Target returns the address of e in the index.
func (e *Entry) Target() Target {
	return Target{Term: e.Term, ID: e.ID}
}

// Info returns the type metadata of e.
func (e *Entry) Info() dfntype.Info {
	return dfntype.Lookup(e.Type)
}

// Specs returns the distinct specs defining e, in definition order.
func (e *Entry) Specs() []string {
	seen := make(map[string]struct{}, len(e.Dfns))
	specs := make([]string, 0, len(e.Dfns))
	for _, d := range e.Dfns {
		if _, ok := seen[d.Spec]; ok {
			continue
		}
		seen[d.Spec] = struct{}{}
		specs = append(specs, d.Spec)
	}
	return specs
}

// HasRelated reports whether t is already in e's related list.
func (e *Entry) HasRelated(t Target) bool {
	for _, r := range e.Related {
		if r == t {
			return true
		}
	}
	return false
}

// AddRelated appends t unless it is already present.
func (e *Entry) AddRelated(t Target) bool {
	if e.HasRelated(t) {
		return false
	}
	e.Related = append(e.Related, t)
	return true
}

// CanonicalText is the first linking text of the first definition.
func (e *Entry) CanonicalText() string {
	if len(e.Dfns) == 0 || len(e.Dfns[0].LinkingText) == 0 {
		return ""
	}
	return e.Dfns[0].LinkingText[0]
}

// NamedBy reports whether text is exactly one of the linking texts of the
// first definition.
func (e *Entry) NamedBy(text string) bool {
	if len(e.Dfns) == 0 {
		return false
	}
	for _, lt := range e.Dfns[0].LinkingText {
		if lt == text {
			return true
		}
	}
	return false
}

// HasFor reports whether scope is one of e's "for" qualifiers.
func (e *Entry) HasFor(scope string) bool {
	for _, f := range e.For {
		if f == scope {
			return true
		}
	}
	return false
}
