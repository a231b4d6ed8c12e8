package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/webdex/internal/scope"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/termindex"
)

func def(spec, typ string, forList []string, linkingText ...string) termindex.Definition {
	return termindex.Definition{
		LinkingText: linkingText,
		Type:        typ,
		For:         forList,
		Href:        "https://" + spec + ".example/#" + linkingText[0],
		Spec:        spec,
		Series:      spec,
	}
}

func build(t *testing.T, defs ...termindex.Definition) (*termindex.Index, *scope.Resolver) {
	t.Helper()
	b := termindex.NewBuilder()
	for _, d := range defs {
		require.NotNil(t, b.Add(d))
	}
	idx := b.Build()
	r, err := scope.NewResolver(idx)
	require.NoError(t, err)
	return idx, r
}

func resolveEntry(r *scope.Resolver, idx *termindex.Index, term, id string) (termindex.Target, bool) {
	e := idx.Entry(term, id)
	return r.Resolve(e.Type, e.For[0], e.DisplayTerm, e.Dfns)
}

func TestResolve_MethodToInterface(t *testing.T) {
	idx, r := build(t,
		def("dom", "interface", nil, "Foo"),
		def("dom", "method", []string{"Foo"}, "bar()"),
	)
	target, ok := resolveEntry(r, idx, "bar()", "Foo@method")
	require.True(t, ok)
	assert.Equal(t, termindex.Target{Term: "Foo", ID: "@@interface"}, target)
}

func TestResolve_FiltersByParentType(t *testing.T) {
	idx, r := build(t,
		def("dom", "interface", nil, "Foo"),
		def("other", "dfn", nil, "foo"),
		def("dom", "method", []string{"Foo"}, "bar()"),
	)
	target, ok := resolveEntry(r, idx, "bar()", "Foo@method")
	require.True(t, ok)
	assert.Equal(t, "@@interface", target.ID)
	assert.Equal(t, int64(1), r.Stats().Resolved)
}

func TestResolve_RequiresExactLinkingText(t *testing.T) {
	idx, r := build(t,
		def("css-values", "type", nil, "<position>"),
		def("css-backgrounds", "property", nil, "position"),
		def("css-backgrounds", "value", []string{"position"}, "static"),
	)
	target, ok := resolveEntry(r, idx, "static", "position@value")
	require.True(t, ok)
	assert.Equal(t, termindex.Target{Term: "position", ID: "@@property"}, target)
}

func TestResolve_SingleCandidateShortcut(t *testing.T) {
	idx, r := build(t,
		def("html", "element", nil, "img"),
		def("html", "element-attr", []string{"img"}, "alt"),
	)
	target, ok := resolveEntry(r, idx, "alt", "img@element-attr")
	require.True(t, ok)
	assert.Equal(t, termindex.Target{Term: "img", ID: "html%%element"}, target)
}

func TestResolve_AliasFallback(t *testing.T) {
	idx, r := build(t,
		def("html", "dfn", nil, "browsing context", "BC"),
		def("html", "dfn", []string{"bc"}, "active document"),
	)
	target, ok := resolveEntry(r, idx, "active document", "bc@dfn")
	require.True(t, ok)
	assert.Equal(t, termindex.Target{Term: "browsing context", ID: "html%%dfn"}, target)
}

func TestResolve_HierarchicalQualifier(t *testing.T) {
	idx, r := build(t,
		def("css-fonts", "at-rule", nil, "@font-face"),
		def("css-fonts", "descriptor", []string{"@font-face"}, "src"),
		def("html", "element-attr", []string{"img"}, "src"),
		def("css-fonts", "value", []string{"@font-face/src"}, "local()"),
	)
	target, ok := resolveEntry(r, idx, "local()", "@font-face/src@value")
	require.True(t, ok)
	assert.Equal(t, termindex.Target{Term: "src", ID: "@font-face@descriptor"}, target)

	e := idx.Entry("local()", "@font-face/src@value")
	q := r.Qualify(e.Type, e.For[0], e.DisplayTerm, e.Dfns)
	assert.True(t, q.Resolved)
	assert.Equal(t, "src", q.Text)
	require.NotNil(t, q.Outer)
	assert.True(t, q.Outer.Resolved)
	assert.Equal(t, termindex.Target{Term: "font-face", ID: "@@at-rule"}, q.Outer.Target)
}

func TestQualify_OuterUnresolvedStaysText(t *testing.T) {
	idx, r := build(t,
		def("css-fonts", "descriptor", []string{"@font-face"}, "src"),
		def("html", "element-attr", []string{"img"}, "src"),
		def("css-fonts", "value", []string{"@font-face/src"}, "local()"),
	)
	e := idx.Entry("local()", "@font-face/src@value")
	q := r.Qualify(e.Type, e.For[0], e.DisplayTerm, e.Dfns)
	assert.True(t, q.Resolved)
	assert.Equal(t, termindex.Target{Term: "src", ID: "@font-face@descriptor"}, q.Target)
	require.NotNil(t, q.Outer)
	assert.False(t, q.Outer.Resolved)
	assert.Equal(t, "@font-face", q.Outer.Text)
	assert.Equal(t, int64(1), r.Stats().Unrecognized)
}

func TestResolve_AmbiguousCandidates(t *testing.T) {
	idx, r := build(t,
		def("spec-a", "interface", nil, "Foo"),
		def("spec-b", "namespace", nil, "Foo"),
		def("spec-c", "method", []string{"Foo"}, "baz()"),
	)
	_, ok := resolveEntry(r, idx, "baz()", "Foo@method")
	assert.False(t, ok)
	assert.Equal(t, int64(1), r.Stats().Ambiguous)

	e := idx.Entry("baz()", "Foo@method")
	q := r.Qualify(e.Type, e.For[0], e.DisplayTerm, e.Dfns)
	assert.False(t, q.Resolved)
	assert.Equal(t, "Foo", q.Text)
}

func TestResolve_AmbiguousConcepts(t *testing.T) {
	idx, r := build(t,
		def("spec-a", "dfn", nil, "thing"),
		def("spec-b", "dfn", nil, "thing"),
		def("spec-c", "dfn", []string{"thing"}, "part"),
	)
	_, ok := resolveEntry(r, idx, "part", "thing@dfn")
	assert.False(t, ok)
	assert.Equal(t, int64(1), r.Stats().Ambiguous)
}

func TestResolve_SameSpecTieBreak(t *testing.T) {
	idx, r := build(t,
		def("spec-a", "dfn", nil, "thing"),
		def("spec-b", "dfn", nil, "thing"),
		def("spec-b", "dfn", []string{"thing"}, "part"),
	)
	target, ok := resolveEntry(r, idx, "part", "thing@dfn")
	require.True(t, ok)
	assert.Equal(t, termindex.Target{Term: "thing", ID: "spec-b%%dfn"}, target)
}

func TestResolve_UnmatchedCandidates(t *testing.T) {
	idx, r := build(t,
		def("spec-a", "dfn", nil, "Foo"),
		def("spec-b", "dfn", nil, "foo"),
		def("spec-c", "method", []string{"Foo"}, "qux()"),
	)
	_, ok := resolveEntry(r, idx, "qux()", "Foo@method")
	assert.False(t, ok)
	assert.Equal(t, int64(1), r.Stats().Unmatched)
}

func TestResolve_Unrecognized(t *testing.T) {
	idx, r := build(t, def("spec-a", "method", []string{"Missing"}, "run()"))
	_, ok := resolveEntry(r, idx, "run()", "Missing@method")
	assert.False(t, ok)
	assert.Equal(t, int64(1), r.Stats().Unrecognized)
}

func TestResolve_EmptyQualifier(t *testing.T) {
	_, r := build(t, def("spec-a", "dfn", nil, "x"))
	_, ok := r.Resolve("dfn", "", "x", nil)
	assert.False(t, ok)
}

func TestResolve_Cache(t *testing.T) {
	idx, r := build(t,
		def("dom", "interface", nil, "Foo"),
		def("dom", "method", []string{"Foo"}, "bar()"),
	)
	for i := 0; i < 3; i++ {
		_, ok := resolveEntry(r, idx, "bar()", "Foo@method")
		require.True(t, ok)
	}
	st := r.Stats()
	assert.Equal(t, int64(1), st.CacheMisses)
	assert.Equal(t, int64(2), st.CacheHits)
	assert.Equal(t, int64(1), st.Resolved)
}

func TestResolve_CacheDisabled(t *testing.T) {
	b := termindex.NewBuilder()
	b.Add(def("dom", "interface", nil, "Foo"))
	b.Add(def("dom", "method", []string{"Foo"}, "bar()"))
	idx := b.Build()
	r, err := scope.NewResolver(idx, scope.WithCacheSize(0))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, ok := resolveEntry(r, idx, "bar()", "Foo@method")
		require.True(t, ok)
	}
	st := r.Stats()
	assert.Zero(t, st.CacheHits)
	assert.Equal(t, int64(2), st.Resolved)
}

func TestQualifyAll_Dedupes(t *testing.T) {
	idx, r := build(t,
		def("dom", "interface", nil, "Foo"),
		def("dom", "interface", nil, "Bar"),
		def("dom", "attribute", []string{"Foo", "Bar"}, "name"),
	)
	e := idx.Entry("name", "Bar@attribute")
	require.NotNil(t, e)
	quals := r.QualifyAll(e)
	require.Len(t, quals, 2)
	assert.Equal(t, "Bar", quals[0].Text)
	assert.Equal(t, "Foo", quals[1].Text)

	idx, r = build(t,
		def("spec-a", "dfn", nil, "thing"),
		def("spec-a", "dfn", []string{"thing", "Thing"}, "part"),
	)
	e = idx.Entry("part", "Thing@dfn")
	require.NotNil(t, e)
	quals = r.QualifyAll(e)
	require.Len(t, quals, 1)
	assert.Equal(t, termindex.Target{Term: "thing", ID: "spec-a%%dfn"}, quals[0].Target)
}

func TestSplit(t *testing.T) {
	outer, inner := scope.Split("@font-face/src")
	assert.Equal(t, "@font-face", outer)
	assert.Equal(t, "src", inner)

	outer, inner = scope.Split("Foo")
	assert.Empty(t, outer)
	assert.Equal(t, "Foo", inner)
}
