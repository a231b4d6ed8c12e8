// Package dfntype is the metadata table for definition types found in the
// webref crawl. Every per-type decision of the index build, scope
// resolution and rendering (label, area, expected parent types, exclusive
// namespace, case folding, display prefix) is read from this table.
package dfntype

import "strings"

// Area groups types for colouring and for ordering related terms.
type Area string

const (
	AreaCSS     Area = "css"
	AreaWebIDL  Area = "webidl"
	AreaMarkup  Area = "markup"
	AreaHTTP    Area = "http"
	AreaConcept Area = "concept"
)

// PrefixStyle says how a scoped definition is decorated when displayed.
type PrefixStyle int

const (
	PrefixNone PrefixStyle = iota
	// PrefixMember renders as "Scope.member", one prefix per scope.
	PrefixMember
	// PrefixConstructor renders as "new Name()".
	PrefixConstructor
)

// Info describes one definition type.
type Info struct {
	Name  string
	Label string
	Area  Area
	// ParentTypes lists the types a "for" qualifier of this type may name.
	// Empty means unknown: only unscoped candidates are accepted.
	ParentTypes []string
	// Exclusive types mean the same thing wherever they are defined, so
	// unscoped definitions from different specs share one entry.
	Exclusive bool
	// FoldCase selects case-insensitive term keys.
	FoldCase bool
	Prefix   PrefixStyle
	// WebIDLPedia marks types that have a WebIDLPedia page.
	WebIDLPedia bool
}

// Known returns false for types that are not in the table.
func (i Info) Known() bool {
	return i.Area != ""
}

// ShortLabel is the label without its leading area word, as used after a
// scope name ("Foo interface", "color property").
func (i Info) ShortLabel() string {
	if !i.Known() {
		return i.Name
	}
	_, rest, _ := strings.Cut(i.Label, " ")
	return rest
}

// AcceptsParent reports whether typ may be named by a "for" qualifier of
// this type.
func (i Info) AcceptsParent(typ string) bool {
	for _, p := range i.ParentTypes {
		if p == typ {
			return true
		}
	}
	return false
}

var cssParents = []string{"descriptor", "property", "type", "function", "at-rule"}

var table = map[string]Info{
	"value":       {Label: "CSS value", Area: AreaCSS, ParentTypes: cssParents, FoldCase: true},
	"at-rule":     {Label: "CSS @rule", Area: AreaCSS, Exclusive: true, FoldCase: true},
	"descriptor":  {Label: "CSS descriptor", Area: AreaCSS, ParentTypes: []string{"at-rule"}, Exclusive: true, FoldCase: true},
	"selector":    {Label: "CSS selector", Area: AreaCSS, Exclusive: true, FoldCase: true},
	"type":        {Label: "CSS type", Area: AreaCSS, ParentTypes: []string{"descriptor", "property", "function"}, Exclusive: true, FoldCase: true},
	"property":    {Label: "CSS property", Area: AreaCSS, Exclusive: true, FoldCase: true},
	"function":    {Label: "CSS function", Area: AreaCSS, ParentTypes: cssParents, FoldCase: true},
	"dfn":         {Label: "concept", Area: AreaConcept, FoldCase: true},
	"abstract-op": {Label: "algorithm", Area: AreaConcept, FoldCase: true},

	"const":              {Label: "WebIDL constant", Area: AreaWebIDL, ParentTypes: []string{"interface", "namespace", "callback"}, Prefix: PrefixMember},
	"interface":          {Label: "WebIDL interface", Area: AreaWebIDL, Exclusive: true, WebIDLPedia: true},
	"namespace":          {Label: "WebIDL namespace", Area: AreaWebIDL, Exclusive: true},
	"method":             {Label: "WebIDL operation", Area: AreaWebIDL, ParentTypes: []string{"interface", "namespace", "callback"}, Prefix: PrefixMember},
	"attribute":          {Label: "WebIDL attribute", Area: AreaWebIDL, ParentTypes: []string{"interface", "namespace"}, Prefix: PrefixMember},
	"dictionary":         {Label: "WebIDL dictionary", Area: AreaWebIDL, Exclusive: true, WebIDLPedia: true},
	"enum":               {Label: "WebIDL enumeration", Area: AreaWebIDL, Exclusive: true, WebIDLPedia: true},
	"enum-value":         {Label: "value", Area: AreaWebIDL, ParentTypes: []string{"enum"}},
	"typedef":            {Label: "WebIDL type alias", Area: AreaWebIDL, Exclusive: true, WebIDLPedia: true},
	"dict-member":        {Label: "WebIDL dictionary member", Area: AreaWebIDL, ParentTypes: []string{"dictionary"}, Prefix: PrefixMember},
	"callback":           {Label: "WebIDL callback", Area: AreaWebIDL, Exclusive: true},
	"constructor":        {Label: "WebIDL constructor", Area: AreaWebIDL, Exclusive: true, Prefix: PrefixConstructor},
	"event":              {Label: "DOM event", Area: AreaWebIDL, ParentTypes: []string{"interface"}},
	"extended-attribute": {Label: "WebIDL extended attribute", Area: AreaWebIDL, Exclusive: true},
	"permission":         {Label: "permission name", Area: AreaWebIDL, Exclusive: true},

	"http-header":   {Label: "HTTP header", Area: AreaHTTP, Exclusive: true, FoldCase: true},
	"attr-value":    {Label: "value", Area: AreaMarkup, ParentTypes: []string{"element-attr"}, FoldCase: true},
	"element-attr":  {Label: "markup attribute", Area: AreaMarkup, ParentTypes: []string{"element"}, FoldCase: true},
	"element":       {Label: "markup element", Area: AreaMarkup, FoldCase: true},
	"element-state": {Label: "state of markup element", Area: AreaMarkup, FoldCase: true},
}

// Lookup returns the metadata for typ. Unknown types get a neutral Info
// whose label is the type name itself.
func Lookup(typ string) Info {
	info, ok := table[typ]
	if !ok {
		return Info{Name: typ, Label: typ, FoldCase: true}
	}
	info.Name = typ
	return info
}

// Label is shorthand for Lookup(typ).Label.
func Label(typ string) string {
	return Lookup(typ).Label
}

// Skipped reports whether definitions of typ are left out of the index.
func Skipped(typ string) bool {
	return typ == "argument"
}

// Names returns every type in the table, for diagnostics and tests.
func Names() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	return names
}
