package render

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"

	"github.com/Adithya-Monish-Kumar-K/webdex/internal/related"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/scope"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/termindex"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/webdex/pkg/errors"
)

func newRenderer(t *testing.T, defs ...termindex.Definition) (*Renderer, *termindex.Index) {
	t.Helper()
	b := termindex.NewBuilder()
	for _, d := range defs {
		require.NotNil(t, b.Add(d))
	}
	idx := b.Build()
	resolver, err := scope.NewResolver(idx)
	require.NoError(t, err)
	related.Aggregate(idx, resolver)
	return New(idx, resolver, config.OutputConfig{Layout: "base"}), idx
}

func webidlFixture() []termindex.Definition {
	return []termindex.Definition{
		{LinkingText: []string{"Foo"}, Type: "interface", Href: "https://dom.example/#foo", Spec: "DOM", Series: "dom"},
		{LinkingText: []string{"bar()"}, Type: "method", For: []string{"Foo"}, Href: "https://dom.example/#dom-foo-bar", Spec: "DOM", Series: "dom"},
		{LinkingText: []string{"Foo(init)"}, Type: "constructor", For: []string{"Foo"}, Href: "https://dom.example/#dom-foo-foo", Spec: "DOM", Series: "dom"},
	}
}

func parse(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func element(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

func text(n *html.Node) string {
	var buf bytes.Buffer
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

func frontMatter(t *testing.T, data []byte) (map[string]string, string) {
	t.Helper()
	s := string(data)
	require.True(t, strings.HasPrefix(s, "---\n"))
	end := strings.Index(s[4:], "---\n")
	require.GreaterOrEqual(t, end, 0)
	var fm map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(s[4:4+end]), &fm))
	return fm, s[4+end+4:]
}

func TestPage_FrontMatter(t *testing.T) {
	p := Page{Path: "a.html", Title: `Terms "quoted"`, Layout: "base", Body: "<p>x</p>"}
	data, err := p.Bytes()
	require.NoError(t, err)
	fm, body := frontMatter(t, data)
	assert.Equal(t, map[string]string{"title": `Terms "quoted"`, "layout": "base"}, fm)
	assert.Equal(t, "<p>x</p>", body)
	assert.True(t, strings.HasPrefix(string(data), "---\ntitle: \"Terms \\\"quoted\\\"\"\nlayout: base\n"))

	nested := Page{Path: "sub/a.html", Title: "t", Layout: "base", Options: []Option{{Key: "script", Value: "s.js"}}}
	data, err = nested.Bytes()
	require.NoError(t, err)
	fm, _ = frontMatter(t, data)
	assert.Equal(t, "../", fm["base"])
	assert.Equal(t, "s.js", fm["script"])
}

func TestLetterTitle(t *testing.T) {
	assert.Equal(t, "Terms starting with letter q", LetterTitle("q"))
	assert.Equal(t, "Terms starting with a non-letter", LetterTitle(termindex.OtherLetter))
}

func TestLetterPage_EntryMarkup(t *testing.T) {
	r, idx := newRenderer(t, webidlFixture()...)
	idx.Entry("bar()", "Foo@method").Refs = append(idx.Entry("bar()", "Foo@method").Refs,
		termindex.Ref{Title: "HTML", URL: "https://html.example/"})

	page, err := r.LetterPage("b", []string{"bar()"})
	require.NoError(t, err)
	assert.Equal(t, "b.html", page.Path)
	assert.Equal(t, "Terms starting with letter b", page.Title)

	doc := parse(t, page.Body)
	dts := findAll(doc, element("dt"))
	require.Len(t, dts, 1)
	assert.Equal(t, "bar()@@Foo@method", attr(dts[0], "id"))

	var hrefs []string
	for _, a := range findAll(dts[0], element("a")) {
		hrefs = append(hrefs, attr(a, "href"))
	}
	assert.Equal(t, []string{"f.html#Foo@@@@interface", "#bar%28%29%40%40Foo%40method"}, hrefs)
	assert.Contains(t, text(dts[0]), "Foo.bar()")
	assert.Contains(t, text(dts[0]), "(WebIDL operation)")

	dds := findAll(doc, element("dd"))
	require.Len(t, dds, 2)
	assert.Equal(t, "Defined in DOM", text(dds[0]))
	strong := findAll(dds[0], element("strong"))
	require.Len(t, strong, 1)
	assert.Equal(t, "bar() is defined in DOM", attr(strong[0], "title"))
	assert.Equal(t, "Referenced in HTML", text(dds[1]))

	legend := findAll(doc, func(n *html.Node) bool { return element("p")(n) && attr(n, "class") == "legend" })
	assert.Len(t, legend, 1)
}

func TestLetterPage_ScopeEntryListsRelatedTerms(t *testing.T) {
	r, _ := newRenderer(t, webidlFixture()...)
	page, err := r.LetterPage("f", []string{"Foo", "Foo(init)"})
	require.NoError(t, err)
	doc := parse(t, page.Body)

	dts := findAll(doc, element("dt"))
	require.Len(t, dts, 2)
	assert.Equal(t, "Foo@@@@interface", attr(dts[0], "id"))
	assert.Equal(t, "Foo(init)@@Foo@constructor", attr(dts[1], "id"))
	assert.Contains(t, text(dts[1]), "new Foo(init)")

	var related, pedia *html.Node
	for _, dd := range findAll(doc, element("dd")) {
		switch {
		case strings.HasPrefix(text(dd), "Related terms:"):
			related = dd
		case strings.HasPrefix(text(dd), "see also"):
			pedia = dd
		}
	}
	require.NotNil(t, related)
	assert.Equal(t, "Related terms: new Foo(init), Foo.bar()", text(related))
	links := findAll(related, element("a"))
	require.Len(t, links, 2)
	assert.Equal(t, "f.html#Foo(init)@@Foo@constructor", attr(links[0], "href"))
	assert.Equal(t, "b.html#bar()@@Foo@method", attr(links[1], "href"))

	require.NotNil(t, pedia)
	a := findAll(pedia, element("a"))
	require.Len(t, a, 1)
	assert.Equal(t, "https://dontcallmedom.github.io/webidlpedia/names/Foo.html", attr(a[0], "href"))
}

func TestDisplayName_Decorations(t *testing.T) {
	r, idx := newRenderer(t,
		termindex.Definition{LinkingText: []string{"Accept"}, Type: "http-header", Spec: "Fetch"},
		termindex.Definition{LinkingText: []string{"Mode"}, Type: "enum", Spec: "Fetch"},
		termindex.Definition{LinkingText: []string{"cors"}, Type: "enum-value", For: []string{"Mode"}, Spec: "Fetch"},
		termindex.Definition{LinkingText: []string{"Window"}, Type: "interface", Spec: "HTML"},
		termindex.Definition{LinkingText: []string{"[[Slot]]"}, Type: "attribute", For: []string{"Window"}, Spec: "HTML"},
		termindex.Definition{LinkingText: []string{"fully active"}, Type: "dfn", Series: "html", Spec: "HTML"},
	)

	heading := func(term, id string) string {
		e := idx.Entry(term, id)
		require.NotNil(t, e, term)
		prefix := ""
		if len(e.Prefixes) > 0 {
			prefix = e.Prefixes[0]
		}
		return string(r.displayName(e, prefix, r.resolver.QualifyAll(e)))
	}

	accept := heading("accept", "@@http-header")
	assert.Contains(t, accept, "<code class=http>Accept</code></strong>:")
	assert.Contains(t, accept, "(<em>HTTP header</em>)")

	cors := heading("cors", "Mode@enum-value")
	assert.Contains(t, cors, "<code class=webidl>&#34;cors&#34;</code>")
	assert.Contains(t, cors, "for <a href='m.html#Mode@@@@enum'><code>Mode</code></a> WebIDL enumeration</em>")

	slot := heading("Slot", "Window@attribute")
	assert.Contains(t, slot, "(<em>internal slot</em>)")
	assert.Contains(t, slot, "<a href='w.html#Window@@@@interface'>Window</a>.")

	concept := heading("fully active", "html%%dfn")
	assert.Contains(t, concept, "<strong>fully active</strong>")
	assert.Contains(t, concept, "(<em>concept</em>)")
}

func TestQualifier_Hierarchical(t *testing.T) {
	r, idx := newRenderer(t,
		termindex.Definition{LinkingText: []string{"@font-face"}, Type: "at-rule", Spec: "Fonts"},
		termindex.Definition{LinkingText: []string{"src"}, Type: "descriptor", For: []string{"@font-face"}, Spec: "Fonts"},
		termindex.Definition{LinkingText: []string{"src"}, Type: "element-attr", For: []string{"img"}, Spec: "HTML", Series: "html"},
		termindex.Definition{LinkingText: []string{"local()"}, Type: "value", For: []string{"@font-face/src"}, Spec: "Fonts"},
	)
	e := idx.Entry("local()", "@font-face/src@value")
	require.NotNil(t, e)
	h := string(r.displayName(e, "", r.resolver.QualifyAll(e)))
	assert.Contains(t, h, "for <a href='s.html#src@@@font-face@descriptor'><code>src</code></a> descriptor of <a href='f.html#@font-face@@@@at-rule'><code>@font-face</code></a> @rule")
}

func TestQualifier_UnresolvedIsPlainText(t *testing.T) {
	r, idx := newRenderer(t,
		termindex.Definition{LinkingText: []string{"Foo"}, Type: "interface", Spec: "A"},
		termindex.Definition{LinkingText: []string{"Foo"}, Type: "namespace", Spec: "B"},
		termindex.Definition{LinkingText: []string{"baz"}, Type: "const", For: []string{"Foo"}, Spec: "C"},
	)
	e := idx.Entry("baz", "Foo@const")
	require.NotNil(t, e)
	h := string(r.displayName(e, e.Prefixes[0], r.resolver.QualifyAll(e)))
	assert.Contains(t, h, "<code class=prefix></code>")
	assert.Contains(t, h, "for <code>Foo</code></em>")
	assert.NotContains(t, h, "href='f.html")
}

func TestIndexPage(t *testing.T) {
	r, idx := newRenderer(t, webidlFixture()...)
	r.cfg.IndexScript = "https://cdn.example/cloud.js"

	page, err := r.IndexPage(stats.TopTerms(idx, 2))
	require.NoError(t, err)
	assert.Equal(t, IndexPage, page.Path)
	assert.Equal(t, IndexTitle, page.Title)
	assert.Equal(t, []Option{{Key: "script", Value: "https://cdn.example/cloud.js"}}, page.Options)

	doc := parse(t, page.Body)
	items := findAll(doc, element("li"))
	require.Len(t, items, 2)
	assert.Equal(t, "Foo (1)", text(items[0]))
	assert.Contains(t, page.Body, "The 2 most popular terms")
}

func TestPages_OrderAndFiles(t *testing.T) {
	r, idx := newRenderer(t, webidlFixture()...)
	pages, err := r.Pages(termindex.BuildLetters(idx), stats.TopTerms(idx, 30))
	require.NoError(t, err)

	var paths []string
	for _, p := range pages {
		paths = append(paths, p.Path)
		assert.Equal(t, "base", p.Layout)
	}
	assert.Equal(t, []string{"b.html", "f.html", "index.html"}, paths)
}

func TestLinkTo_EscapesPercent(t *testing.T) {
	b := termindex.NewBuilder()
	b.Add(termindex.Definition{LinkingText: []string{"thing"}, Type: "dfn", Series: "spec"})
	idx := b.Build()
	assert.Equal(t, "t.html#thing@@spec%25%25dfn", LinkTo(idx, termindex.Target{Term: "thing", ID: "spec%%dfn"}))
	assert.Empty(t, LinkTo(idx, termindex.Target{Term: "missing", ID: "x"}))
}

func TestWriter_WritesAtomically(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	p := Page{Path: "a.html", Title: "A", Layout: "base", Body: "<dl></dl>\n"}

	path, err := w.Write(p)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.html"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := p.Bytes()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	p.Body = "<dl>v2</dl>\n"
	_, err = w.Write(p)
	require.NoError(t, err)
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(got), "v2")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.html", entries[0].Name())
}

func TestWriter_Failure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := NewWriter(blocker).Write(Page{Path: "a.html", Title: "A", Layout: "base"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrOutput))
	assert.Equal(t, apperrors.ExitOutput, apperrors.ExitCode(err))
}
