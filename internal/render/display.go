package render

import (
	"html/template"
	"net/url"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/webdex/internal/dfntype"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/normalize"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/scope"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/termindex"
)

const webIDLPediaBase = "https://dontcallmedom.github.io/webidlpedia/names/"

func esc(s string) template.HTML {
	return template.HTML(template.HTMLEscapeString(s))
}

func wrapLink(markup template.HTML, href string) template.HTML {
	if href == "" {
		return markup
	}
	return "<a href='" + esc(href) + "'>" + markup + "</a>"
}

func wrapCode(markup template.HTML, on bool, class string) template.HTML {
	if !on {
		return markup
	}
	if class == "" {
		return "<code>" + markup + "</code>"
	}
	return "<code class=" + esc(class) + ">" + markup + "</code>"
}

// isCode reports whether a term is shown in code style. Concepts and
// algorithms named in prose are not.
func isCode(display, typ string) bool {
	switch typ {
	case "dfn":
		return false
	case "abstract-op":
		return !(strings.Contains(display, " ") && !strings.Contains(display, "("))
	}
	return true
}

// AnchorID is the id of the element introducing e on its letter page.
func AnchorID(e *termindex.Entry) string {
	return e.DisplayTerm + "@@" + e.ID
}

// LinkTo returns the relative URL of the entry t points at, or "" when t
// is not in the index.
func LinkTo(idx *termindex.Index, t termindex.Target) string {
	e := idx.Get(t)
	if e == nil {
		return ""
	}
	return termindex.Page(e.Term) + "#" + e.DisplayTerm + "@@" + strings.ReplaceAll(e.ID, "%", "%25")
}

// encodeFragment percent-encodes s the way a URI component is encoded.
func encodeFragment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (r *Renderer) scopeName(e *termindex.Entry, withType bool) template.HTML {
	markup := wrapLink(wrapCode(esc(e.DisplayTerm), isCode(e.DisplayTerm, e.Type), ""), LinkTo(r.idx, e.Target()))
	if !withType {
		return markup
	}
	return markup + " " + esc(e.Info().ShortLabel())
}

func (r *Renderer) qualifierPart(q scope.Qualifier, withType bool) template.HTML {
	if q.Resolved {
		if e := r.idx.Get(q.Target); e != nil {
			return r.scopeName(e, withType)
		}
	}
	return wrapCode(esc(q.Text), true, "")
}

// qualifier renders a "for" qualifier; hierarchical ones read "inner
// <type> of outer <type>".
func (r *Renderer) qualifier(q scope.Qualifier) template.HTML {
	if q.Outer == nil {
		return r.qualifierPart(q, false)
	}
	return r.qualifierPart(q, true) + " of " + r.qualifierPart(*q.Outer, true)
}

// memberScope finds the qualifier a "Scope." prefix refers to.
func (r *Renderer) memberScope(scopeName string, quals []scope.Qualifier) (scope.Qualifier, bool) {
	keys := normalize.Keys(scopeName)
	for _, q := range quals {
		if !q.Resolved || q.Outer != nil {
			continue
		}
		for _, k := range keys {
			if q.Target.Term == k {
				return q, true
			}
		}
	}
	return scope.Qualifier{}, false
}

// displayName renders the heading of e for one of its prefixes.
func (r *Renderer) displayName(e *termindex.Entry, prefix string, quals []scope.Qualifier) template.HTML {
	info := e.Info()
	display := e.DisplayTerm

	var displayPrefix template.HTML
	var prefixText, suffix, wrap string
	hasPrefix := prefix != ""

	switch info.Prefix {
	case dfntype.PrefixMember:
		name := strings.TrimSuffix(prefix, ".")
		if q, ok := r.memberScope(name, quals); ok && hasPrefix {
			displayPrefix = wrapLink(esc(name), LinkTo(r.idx, q.Target)) + "."
			prefixText = prefix
		} else {
			hasPrefix = false
		}
		if e.Type == "method" && !strings.HasSuffix(display, ")") {
			suffix = "()"
		}
	case dfntype.PrefixConstructor:
		displayPrefix = esc(prefix)
		prefixText = prefix
		if !strings.HasSuffix(display, ")") {
			suffix = "()"
		}
	}
	switch e.Type {
	case "http-header":
		suffix = ":"
	case "permission", "enum-value":
		wrap = `"`
	}

	var forText template.HTML
	if len(e.For) > 0 && !hasPrefix {
		parts := make([]string, 0, len(quals))
		for _, q := range quals {
			parts = append(parts, string(r.qualifier(q)))
		}
		forText = " for " + template.HTML(strings.Join(parts, ", "))
		if e.Type == "enum-value" {
			forText += " WebIDL enumeration"
			if len(e.For) > 1 {
				forText += "s"
			}
		}
	}

	label := info.Label
	if (e.Type == "method" || e.Type == "attribute") && strings.HasPrefix(display, "[[") {
		if e.Type == "attribute" {
			label = "internal slot"
		} else {
			label = "internal method"
		}
	}

	var b strings.Builder
	b.WriteString("<code class=prefix>")
	b.WriteString(string(displayPrefix))
	b.WriteString("</code><strong>")
	b.WriteString(string(wrapCode(esc(wrap+display+wrap), isCode(display, e.Type), string(info.Area))))
	b.WriteString("</strong>")
	b.WriteString(string(esc(suffix)))
	b.WriteString(" (<em>")
	b.WriteString(string(esc(label)))
	b.WriteString(string(forText))
	b.WriteString("</em>) <a class='self-link' href='#")
	b.WriteString(string(esc(encodeFragment(AnchorID(e)))))
	b.WriteString("' aria-label=\"Permalink for ")
	b.WriteString(string(esc(prefixText + display + suffix)))
	b.WriteString("\">§</a>")
	return template.HTML(b.String())
}

// relatedName renders one related term as listed under its scope, whose
// display text is scopeDisplay.
func (r *Renderer) relatedName(t termindex.Target, scopeDisplay string) template.HTML {
	e := r.idx.Get(t)
	if e == nil {
		return ""
	}
	term := wrapLink(wrapCode(esc(e.DisplayTerm), isCode(e.DisplayTerm, e.Type), ""), LinkTo(r.idx, t))
	if len(e.Prefixes) == 0 {
		return "<em>" + esc(e.Info().Label) + "</em> " + term
	}
	prefix := e.Prefixes[0]
	if len(e.Prefixes) > 1 {
		for _, p := range e.Prefixes {
			if p == scopeDisplay+"." {
				prefix = p
				break
			}
		}
	}
	return "<code>" + esc(prefix) + "</code>" + term
}

func webIDLPedia(e *termindex.Entry) string {
	if !e.Info().WebIDLPedia {
		return ""
	}
	return webIDLPediaBase + e.DisplayTerm + ".html"
}
