// Package crawl reads a webref crawl: the index of specifications and the
// per-specification dfns and links fragments it points at.
package crawl

// Index is the top-level crawl document (ed/index.json).
type Index struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Results []Spec `json:"-"`
}

// Spec is one crawled specification with its fragments expanded.
type Spec struct {
	URL        string  `json:"url"`
	Shortname  string  `json:"shortname"`
	Series     Series  `json:"series"`
	Title      string  `json:"title"`
	ShortTitle string  `json:"shortTitle"`
	Nightly    Nightly `json:"nightly"`
	Dfns       []Dfn   `json:"dfns"`
	Links      Links   `json:"links"`
}

// Series groups successive levels of one specification.
type Series struct {
	Shortname string `json:"shortname"`
}

// Nightly holds the editor's draft location.
type Nightly struct {
	URL string `json:"url"`
}

// Dfn is one definition extracted from a specification.
type Dfn struct {
	ID          string   `json:"id"`
	Href        string   `json:"href"`
	LinkingText []string `json:"linkingText"`
	Type        string   `json:"type"`
	For         []string `json:"for"`
	Access      string   `json:"access"`
	Informative bool     `json:"informative"`
}

// Private reports whether the definition is not meant to be linked to from
// other specifications.
func (d Dfn) Private() bool {
	return d.Access == "private"
}

// Link is an outbound link target of a specification: a document URL and
// the fragments linked within it.
type Link struct {
	URL       string
	Fragments []string
}

// Links keeps outbound links in document order.
type Links []Link

// Targets expands links into full "url#fragment" targets in order.
func (l Links) Targets() []string {
	var out []string
	for _, link := range l {
		for _, frag := range link.Fragments {
			out = append(out, link.URL+"#"+frag)
		}
	}
	return out
}

// DisplayTitle is the title references to this spec are shown with.
func (s Spec) DisplayTitle() string {
	if s.ShortTitle != "" {
		return s.ShortTitle
	}
	if s.Title != "" {
		return s.Title
	}
	return s.Shortname
}

// SeriesName is the identifier spec-local definitions are namespaced by.
func (s Spec) SeriesName() string {
	if s.Series.Shortname != "" {
		return s.Series.Shortname
	}
	return s.Shortname
}

// DraftURL is where references to this spec point.
func (s Spec) DraftURL() string {
	if s.Nightly.URL != "" {
		return s.Nightly.URL
	}
	return s.URL
}
