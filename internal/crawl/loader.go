package crawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/webdex/pkg/errors"
)

// Loader reads the crawl index and expands the dfns and links fragments of
// every result.
type Loader struct {
	cfg    config.CrawlConfig
	logger *slog.Logger
}

// NewLoader creates a Loader for the given crawl location.
func NewLoader(cfg config.CrawlConfig) *Loader {
	return &Loader{
		cfg:    cfg,
		logger: slog.Default().With("component", "crawl-loader"),
	}
}

type rawIndex struct {
	Type    string            `json:"type"`
	Title   string            `json:"title"`
	Date    string            `json:"date"`
	Results []json.RawMessage `json:"results"`
}

type rawSpec struct {
	URL        string          `json:"url"`
	Shortname  string          `json:"shortname"`
	Series     Series          `json:"series"`
	Title      string          `json:"title"`
	ShortTitle string          `json:"shortTitle"`
	Nightly    Nightly         `json:"nightly"`
	Dfns       json.RawMessage `json:"dfns"`
	Links      json.RawMessage `json:"links"`
}

type dfnsFragment struct {
	Dfns []Dfn `json:"dfns"`
}

type linksFragment struct {
	Links Links `json:"links"`
}

// Load reads the index and every fragment it references. Fragments are read
// concurrently up to the configured limit; the returned specs keep the
// order of the index.
func (l *Loader) Load(ctx context.Context) (*Index, error) {
	start := time.Now()
	data, err := os.ReadFile(l.cfg.IndexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.ErrCrawlNotFound, "reading crawl index", err)
		}
		return nil, fmt.Errorf("reading crawl index %s: %w", l.cfg.IndexPath, err)
	}
	var raw rawIndex
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidCrawl, "parsing crawl index", err)
	}

	specs := make([]Spec, len(raw.Results))
	g, gctx := errgroup.WithContext(ctx)
	limit := l.cfg.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, result := range raw.Results {
		i, result := i, result
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			spec, err := l.expand(result)
			if err != nil {
				return fmt.Errorf("expanding result %d: %w", i, err)
			}
			specs[i] = spec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dfns := 0
	for _, s := range specs {
		dfns += len(s.Dfns)
	}
	l.logger.Info("crawl loaded",
		"title", raw.Title,
		"date", raw.Date,
		"specs", len(specs),
		"dfns", dfns,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Index{
		Type:    raw.Type,
		Title:   raw.Title,
		Date:    raw.Date,
		Results: specs,
	}, nil
}

func (l *Loader) expand(result json.RawMessage) (Spec, error) {
	var rs rawSpec
	if err := json.Unmarshal(result, &rs); err != nil {
		return Spec{}, apperrors.Wrap(apperrors.ErrInvalidCrawl, "parsing spec entry", err)
	}
	spec := Spec{
		URL:        rs.URL,
		Shortname:  rs.Shortname,
		Series:     rs.Series,
		Title:      rs.Title,
		ShortTitle: rs.ShortTitle,
		Nightly:    rs.Nightly,
	}

	dfns, err := l.dfns(rs.Dfns)
	if err != nil {
		return Spec{}, fmt.Errorf("spec %s: %w", rs.Shortname, err)
	}
	spec.Dfns = dfns

	links, err := l.links(rs.Links)
	if err != nil {
		return Spec{}, fmt.Errorf("spec %s: %w", rs.Shortname, err)
	}
	spec.Links = links

	l.logger.Debug("spec expanded",
		"shortname", spec.Shortname,
		"dfns", len(spec.Dfns),
		"link_targets", len(spec.Links),
	)
	return spec, nil
}

func (l *Loader) dfns(raw json.RawMessage) ([]Dfn, error) {
	if path, ok := fragmentPath(raw); ok {
		var frag dfnsFragment
		if err := l.readFragment(path, &frag); err != nil {
			return nil, err
		}
		return frag.Dfns, nil
	}
	if isEmpty(raw) {
		return nil, nil
	}
	var dfns []Dfn
	if err := json.Unmarshal(raw, &dfns); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidCrawl, "parsing inline dfns", err)
	}
	return dfns, nil
}

func (l *Loader) links(raw json.RawMessage) (Links, error) {
	if path, ok := fragmentPath(raw); ok {
		var frag linksFragment
		if err := l.readFragment(path, &frag); err != nil {
			return nil, err
		}
		return frag.Links, nil
	}
	if isEmpty(raw) {
		return nil, nil
	}
	var links Links
	if err := json.Unmarshal(raw, &links); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidCrawl, "parsing inline links", err)
	}
	return links, nil
}

func (l *Loader) readFragment(rel string, v any) error {
	path := filepath.Join(l.cfg.Dir(), filepath.FromSlash(rel))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.Wrap(apperrors.ErrCrawlNotFound, "reading fragment "+rel, err)
		}
		return fmt.Errorf("reading fragment %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidCrawl, "parsing fragment "+rel, err)
	}
	return nil
}

// fragmentPath reports whether raw is a JSON string, i.e. a path to a
// fragment file rather than inline data.
func fragmentPath(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var path string
	if err := json.Unmarshal(trimmed, &path); err != nil || path == "" {
		return "", false
	}
	return path, true
}

func isEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
