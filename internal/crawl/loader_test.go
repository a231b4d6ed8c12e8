package crawl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/webdex/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoader_ExpandsFragmentsInIndexOrder(t *testing.T) {
	dir := t.TempDir()
	var results []string
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("spec%02d", i)
		writeFile(t, filepath.Join(dir, "dfns", name+".json"), fmt.Sprintf(
			`{"spec": {}, "dfns": [{"id": "d%d", "href": "https://%s.example/#d", "linkingText": ["term%d"], "type": "dfn", "for": [], "access": "public"}]}`,
			i, name, i))
		writeFile(t, filepath.Join(dir, "links", name+".json"), fmt.Sprintf(
			`{"links": {"https://z.example/": ["a"], "https://a.example/": {"anchors": ["b", "c"]}, "https://m.example/%d": []}}`, i))
		results = append(results, fmt.Sprintf(
			`{"shortname": "%s", "series": {"shortname": "%s"}, "shortTitle": "Spec %d", "url": "https://%s.example/", "nightly": {"url": "https://%s.example/ed/"}, "dfns": "dfns/%s.json", "links": "links/%s.json"}`,
			name, name, i, name, name, name, name))
	}
	index := `{"type": "crawl", "title": "Test crawl", "date": "2026-10-19", "results": [` + joinJSON(results) + `]}`
	writeFile(t, filepath.Join(dir, "index.json"), index)

	loader := NewLoader(config.CrawlConfig{IndexPath: filepath.Join(dir, "index.json"), Concurrency: 4})
	idx, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Test crawl", idx.Title)
	assert.Equal(t, "2026-10-19", idx.Date)
	require.Len(t, idx.Results, 12)
	for i, spec := range idx.Results {
		assert.Equal(t, fmt.Sprintf("spec%02d", i), spec.Shortname)
		require.Len(t, spec.Dfns, 1)
		assert.Equal(t, []string{fmt.Sprintf("term%d", i)}, spec.Dfns[0].LinkingText)
		assert.Equal(t, []string{
			"https://z.example/#a",
			"https://a.example/#b",
			"https://a.example/#c",
		}, spec.Links.Targets())
		assert.Len(t, spec.Links, 3)
	}
}

func joinJSON(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}

func TestLoader_InlineAndMissingArrays(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.json"), `{
		"results": [
			{"shortname": "inline", "dfns": [{"linkingText": ["x"], "type": "dfn"}], "links": {"https://a.example/": ["x"]}},
			{"shortname": "bare"},
			{"shortname": "nulls", "dfns": null, "links": null}
		]
	}`)

	idx, err := NewLoader(config.CrawlConfig{IndexPath: filepath.Join(dir, "index.json")}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, idx.Results, 3)
	assert.Len(t, idx.Results[0].Dfns, 1)
	assert.Equal(t, []string{"https://a.example/#x"}, idx.Results[0].Links.Targets())
	assert.Empty(t, idx.Results[1].Dfns)
	assert.Empty(t, idx.Results[1].Links)
	assert.Empty(t, idx.Results[2].Dfns)
	assert.Empty(t, idx.Results[2].Links)
}

func TestLoader_BaseDirOverride(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	writeFile(t, filepath.Join(data, "dfns", "a.json"), `{"dfns": [{"linkingText": ["x"], "type": "dfn"}]}`)
	writeFile(t, filepath.Join(dir, "index.json"), `{"results": [{"shortname": "a", "dfns": "dfns/a.json"}]}`)

	idx, err := NewLoader(config.CrawlConfig{IndexPath: filepath.Join(dir, "index.json"), BaseDir: data}).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, idx.Results[0].Dfns, 1)
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewLoader(config.CrawlConfig{IndexPath: filepath.Join(dir, "missing.json")}).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCrawlNotFound))
	assert.Equal(t, apperrors.ExitInput, apperrors.ExitCode(err))

	writeFile(t, filepath.Join(dir, "broken.json"), `{"results": [`)
	_, err = NewLoader(config.CrawlConfig{IndexPath: filepath.Join(dir, "broken.json")}).Load(context.Background())
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCrawl))

	writeFile(t, filepath.Join(dir, "dangling.json"), `{"results": [{"shortname": "a", "dfns": "dfns/nope.json"}]}`)
	_, err = NewLoader(config.CrawlConfig{IndexPath: filepath.Join(dir, "dangling.json")}).Load(context.Background())
	assert.True(t, errors.Is(err, apperrors.ErrCrawlNotFound))
}

func TestLinks_GroupedLayout(t *testing.T) {
	var links Links
	err := json.Unmarshal([]byte(`{
		"rawlinks": {"https://b.example/": ["1"]},
		"autolinks": {"https://a.example/": {"anchors": ["2"]}, "https://c.example/": 42}
	}`), &links)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://b.example/#1", "https://a.example/#2"}, links.Targets())
	require.Len(t, links, 3)
	assert.Nil(t, links[2].Fragments)
}

func TestLinks_NonObject(t *testing.T) {
	var links Links
	require.NoError(t, json.Unmarshal([]byte(`["x"]`), &links))
	assert.Nil(t, links)
}

func TestLinks_MarshalKeepsOrder(t *testing.T) {
	links := Links{
		{URL: "https://z.example/", Fragments: []string{"a"}},
		{URL: "https://a.example/"},
	}
	out, err := json.Marshal(links)
	require.NoError(t, err)
	assert.JSONEq(t, `{"https://z.example/": ["a"], "https://a.example/": []}`, string(out))
	assert.Equal(t, `{"https://z.example/":["a"],"https://a.example/":[]}`, string(out))
}

func TestSpec_Fallbacks(t *testing.T) {
	s := Spec{Shortname: "fetch", URL: "https://fetch.spec.whatwg.org/"}
	assert.Equal(t, "fetch", s.DisplayTitle())
	assert.Equal(t, "fetch", s.SeriesName())
	assert.Equal(t, "https://fetch.spec.whatwg.org/", s.DraftURL())

	s.Title = "Fetch Standard"
	s.ShortTitle = "Fetch"
	s.Series.Shortname = "fetch-series"
	s.Nightly.URL = "https://fetch.spec.whatwg.org/ed/"
	assert.Equal(t, "Fetch", s.DisplayTitle())
	assert.Equal(t, "fetch-series", s.SeriesName())
	assert.Equal(t, "https://fetch.spec.whatwg.org/ed/", s.DraftURL())
}
