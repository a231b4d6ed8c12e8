// Package render turns the finished term index into the static pages of the
// site: one page per letter bucket and an index page.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Adithya-Monish-Kumar-K/webdex/internal/related"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/scope"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/termindex"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/config"
)

const (
	IndexPage  = "index.html"
	IndexTitle = "WebDex: Web specs index"
)

// Option is an extra front-matter key.
type Option struct {
	Key   string
	Value string
}

// Page is one output document.
type Page struct {
	Path    string
	Title   string
	Layout  string
	Options []Option
	Body    string
}

// FrontMatter returns the YAML header of p, delimiters included. Pages
// nested in a directory get a "base" pointing back to the site root.
func (p Page) FrontMatter() ([]byte, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key, value string, style yaml.Style) {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: value, Style: style},
		)
	}
	add("title", p.Title, yaml.DoubleQuotedStyle)
	add("layout", p.Layout, 0)
	if strings.Contains(p.Path, "/") {
		add("base", "../", 0)
	}
	for _, o := range p.Options {
		add(o.Key, o.Value, yaml.DoubleQuotedStyle)
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("encoding front matter of %s: %w", p.Path, err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(out)
	buf.WriteString("---\n")
	return buf.Bytes(), nil
}

// Bytes returns the full document.
func (p Page) Bytes() ([]byte, error) {
	fm, err := p.FrontMatter()
	if err != nil {
		return nil, err
	}
	return append(fm, p.Body...), nil
}

// LetterTitle is the title of the page of a letter bucket.
func LetterTitle(letter string) string {
	if letter == termindex.OtherLetter {
		return "Terms starting with a non-letter"
	}
	return "Terms starting with letter " + letter
}

type definitionView struct {
	Spec  string
	Href  string
	Title string
}

type refView struct {
	Title   string
	URL     string
	Tooltip string
}

type entryView struct {
	Anchor        string
	Heading       template.HTML
	ExtraHeadings []template.HTML
	Definitions   []definitionView
	Refs          []refView
	Related       []template.HTML
	WebIDLPedia   string
	Display       string
}

var letterTmpl = template.Must(template.New("letter").Parse(`
<p class=legend>Color key: <code class=webidl>WebIDL</code> <code class='css'>CSS</code> <code class='markup'>Markup</code> <code class='http'>HTTP</code></p>
<dl>
{{range .}}<dt id="{{.Anchor}}">{{.Heading}}</dt>
{{range .ExtraHeadings}}<dt>{{.}}</dt>
{{end}}<dd>Defined in {{range $i, $d := .Definitions}}{{if $i}}, {{end}}<strong title="{{$d.Title}}"><a href="{{$d.Href}}">{{$d.Spec}}</a></strong>{{end}}</dd>
{{if .Refs}}<dd>Referenced in {{range $i, $r := .Refs}}{{if $i}}, {{end}}<a href="{{$r.URL}}" title="{{$r.Tooltip}}">{{$r.Title}}</a>{{end}}</dd>
{{end}}{{if .Related}}<dd>Related terms: {{range $i, $h := .Related}}{{if $i}}, {{end}}{{$h}}{{end}}</dd>
{{end}}{{if .WebIDLPedia}}<dd>see also <a href="{{.WebIDLPedia}}" title="{{.Display}} entry on WebIDLpedia">WebIDLPedia</a></dd>
{{end}}{{end}}</dl>
`))

var indexTmpl = template.Must(template.New("index").Parse(`<p>This site collects the terms defined across <a href="https://github.com/w3c/browser-specs">Web specifications</a>, links to where they are defined and which specifications they are linked from.</p>
<p>The {{len .}} most popular terms defined across Web specifications are:</p>
<ol id=terms>
{{range .}}  <li><span class=term>{{.Term}}</span> (<span class=freq>{{.Count}}</span>)</li>
{{end}}</ol>
`))

// Renderer produces pages from a fully linked index. It must only be used
// once reference linking and related-term aggregation are complete.
type Renderer struct {
	idx      *termindex.Index
	resolver *scope.Resolver
	cfg      config.OutputConfig
	logger   *slog.Logger
}

func New(idx *termindex.Index, resolver *scope.Resolver, cfg config.OutputConfig) *Renderer {
	if cfg.Layout == "" {
		cfg.Layout = "base"
	}
	return &Renderer{
		idx:      idx,
		resolver: resolver,
		cfg:      cfg,
		logger:   slog.Default().With("component", "renderer"),
	}
}

// Pages renders every letter bucket in sorted order followed by the index
// page.
func (r *Renderer) Pages(letters termindex.Letters, top []stats.TermCount) ([]Page, error) {
	keys := letters.Keys()
	pages := make([]Page, 0, len(keys)+1)
	for _, letter := range keys {
		p, err := r.LetterPage(letter, letters[letter])
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	p, err := r.IndexPage(top)
	if err != nil {
		return nil, err
	}
	pages = append(pages, p)
	r.logger.Info("pages rendered", "pages", len(pages))
	return pages, nil
}

// LetterPage renders the entries of terms, which must be sorted.
func (r *Renderer) LetterPage(letter string, terms []string) (Page, error) {
	var views []entryView
	for _, term := range terms {
		for _, e := range r.idx.Entries(term) {
			views = append(views, r.entryView(e))
		}
	}
	var buf bytes.Buffer
	if err := letterTmpl.Execute(&buf, views); err != nil {
		return Page{}, fmt.Errorf("rendering letter %s: %w", letter, err)
	}
	r.logger.Debug("letter page rendered", "letter", letter, "terms", len(terms), "entries", len(views))
	return Page{
		Path:   letter + ".html",
		Title:  LetterTitle(letter),
		Layout: r.cfg.Layout,
		Body:   buf.String(),
	}, nil
}

// IndexPage renders the landing page listing top.
func (r *Renderer) IndexPage(top []stats.TermCount) (Page, error) {
	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, top); err != nil {
		return Page{}, fmt.Errorf("rendering index page: %w", err)
	}
	p := Page{
		Path:   IndexPage,
		Title:  IndexTitle,
		Layout: r.cfg.Layout,
		Body:   buf.String(),
	}
	if r.cfg.IndexScript != "" {
		p.Options = append(p.Options, Option{Key: "script", Value: r.cfg.IndexScript})
	}
	return p, nil
}

func (r *Renderer) entryView(e *termindex.Entry) entryView {
	quals := r.resolver.QualifyAll(e)

	first := ""
	if len(e.Prefixes) > 0 {
		first = e.Prefixes[0]
	}
	v := entryView{
		Anchor:      AnchorID(e),
		Heading:     r.displayName(e, first, quals),
		WebIDLPedia: webIDLPedia(e),
		Display:     e.DisplayTerm,
	}
	if len(e.Prefixes) > 1 {
		for _, p := range e.Prefixes[1:] {
			v.ExtraHeadings = append(v.ExtraHeadings, r.displayName(e, p, quals))
		}
	}
	for _, d := range e.Dfns {
		v.Definitions = append(v.Definitions, definitionView{
			Spec:  d.Spec,
			Href:  d.Href,
			Title: e.DisplayTerm + " is defined in " + d.Spec,
		})
	}
	for _, ref := range e.Refs {
		v.Refs = append(v.Refs, refView{
			Title:   ref.Title,
			URL:     ref.URL,
			Tooltip: e.DisplayTerm + " is referenced by " + ref.Title,
		})
	}
	for _, t := range related.Sort(r.idx, e.Related) {
		if h := r.relatedName(t, e.DisplayTerm); h != "" {
			v.Related = append(v.Related, h)
		}
	}
	return v
}
