// Package pipeline runs a WebDex build end to end: load the crawl, build
// the term index, link references, aggregate related terms, render and
// write the pages, then hand the result to the publish sinks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/webdex/internal/crawl"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/linker"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/publish"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/related"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/render"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/scope"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/termindex"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/webdex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/tracing"
)

// Phase names, as used for spans, metrics and the summary.
const (
	PhaseLoad      = "load"
	PhaseIndex     = "index"
	PhaseLink      = "link"
	PhaseAggregate = "aggregate"
	PhaseRender    = "render"
	PhaseWrite     = "write"
	PhasePublish   = "publish"
)

// Engine runs builds. Phases run strictly in sequence on the calling
// goroutine; cancellation is checked between phases.
type Engine struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	sinks   []publish.Sink
	logger  *slog.Logger
	newID   func() string
}

// Option is a functional option for NewEngine.
type Option func(*Engine)

// WithMetrics records build metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithSinks publishes every successful build to sinks.
func WithSinks(sinks ...publish.Sink) Option {
	return func(e *Engine) {
		e.sinks = append(e.sinks, sinks...)
	}
}

func NewEngine(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		logger: slog.Default().With("component", "engine"),
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// build carries the state handed from one phase to the next.
type build struct {
	crawl    *crawl.Index
	idx      *termindex.Index
	resolver *scope.Resolver
	links    linker.Stats
	related  related.Stats
	letters  termindex.Letters
	top      []stats.TermCount
	pages    []render.Page
	written  int
}

// Run performs one build and returns its summary. Load and write failures
// abort the build; publish failures are only logged.
func (e *Engine) Run(ctx context.Context) (*stats.Summary, error) {
	buildID := e.newID()
	ctx, root := tracing.StartSpan(ctx, "build", buildID)
	root.SetAttr("build_id", buildID)
	summary := &stats.Summary{BuildID: buildID, StartedAt: time.Now().UTC()}
	logger := e.logger.With("build_id", buildID)
	logger.Info("build started",
		"crawl_index", e.cfg.Crawl.IndexPath,
		"output_dir", e.cfg.Output.Dir,
	)

	var b build
	steps := []struct {
		name string
		fn   func(context.Context, *build) error
	}{
		{PhaseLoad, e.load},
		{PhaseIndex, e.index},
		{PhaseLink, e.link},
		{PhaseAggregate, e.aggregate},
		{PhaseRender, e.render},
		{PhaseWrite, e.write},
	}
	for _, step := range steps {
		if err := e.phase(ctx, step.name, func(ctx context.Context) error {
			return step.fn(ctx, &b)
		}); err != nil {
			root.End()
			logger.Error("build failed", "phase", step.name, "error", err)
			return nil, err
		}
	}

	summary.FinishedAt = time.Now().UTC()
	summary.CrawlTitle = b.crawl.Title
	summary.CrawlDate = b.crawl.Date
	summary.Index = b.idx.Stats()
	summary.Terms = b.idx.Len()
	summary.Entries = b.idx.EntryCount()
	summary.Links = b.links
	summary.Related = b.related
	summary.Scopes = b.resolver.Stats()
	summary.Pages = b.written
	summary.TopTerms = b.top
	summary.PhasesMs = root.ChildDurations()
	e.recordResolutions(summary.Scopes)

	if len(e.sinks) > 0 {
		e.publishSnapshot(ctx, logger, publish.Snapshot{Summary: *summary, Index: b.idx})
		summary.PhasesMs = root.ChildDurations()
	}

	root.End()
	if e.cfg.Tracing.Enabled {
		root.Log()
	}
	logger.Info("build finished",
		"specs", summary.Index.Specs,
		"terms", summary.Terms,
		"entries", summary.Entries,
		"pages", summary.Pages,
		"duration_ms", summary.Duration().Milliseconds(),
	)
	return summary, nil
}

// publishSnapshot hands a finished build to the sinks. Failures never fail
// the build; a build canceled before publishing is logged as unpublished.
func (e *Engine) publishSnapshot(ctx context.Context, logger *slog.Logger, snap publish.Snapshot) {
	err := e.phase(ctx, PhasePublish, func(ctx context.Context) error {
		results := publish.NewPublisher(e.sinks, e.cfg.Publish, e.metrics).Publish(ctx, snap)
		if failed := publish.Failed(results); failed > 0 {
			logger.Warn("some sinks were not updated", "failed", failed, "sinks", len(results))
		}
		return nil
	})
	if err != nil {
		logger.Warn("build not published", "sinks", len(e.sinks), "error", err)
	}
}

func (e *Engine) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.ErrCanceled, name, err)
	}
	phaseCtx, span := tracing.StartChildSpan(ctx, name)
	start := time.Now()
	err := fn(phaseCtx)
	span.End()
	if e.metrics != nil {
		e.metrics.ObservePhase(name, time.Since(start))
	}
	if err == nil {
		return nil
	}
	span.SetAttr("error", err.Error())
	if ctx.Err() != nil && !errors.Is(err, apperrors.ErrCanceled) {
		return apperrors.Wrap(apperrors.ErrCanceled, name, err)
	}
	return err
}

func (e *Engine) load(ctx context.Context, b *build) error {
	idx, err := crawl.NewLoader(e.cfg.Crawl).Load(ctx)
	if err != nil {
		return err
	}
	b.crawl = idx
	if e.metrics != nil {
		e.metrics.SpecsLoaded.Add(float64(len(idx.Results)))
	}
	return nil
}

func (e *Engine) index(ctx context.Context, b *build) error {
	var opts []termindex.Option
	if e.cfg.Build.MultipagePrefixes != nil {
		opts = append(opts, termindex.WithMultipagePrefixes(e.cfg.Build.MultipagePrefixes...))
	}
	builder := termindex.NewBuilder(opts...)
	for _, spec := range b.crawl.Results {
		builder.AddSpec(spec)
	}
	b.idx = builder.Build()

	resolver, err := scope.NewResolver(b.idx, scope.WithCacheSize(e.cfg.Build.ResolverCacheSize))
	if err != nil {
		return fmt.Errorf("creating scope resolver: %w", err)
	}
	b.resolver = resolver

	if e.metrics != nil {
		st := b.idx.Stats()
		e.metrics.DefinitionsIndexed.Add(float64(st.Definitions))
		e.metrics.DefinitionsSkipped.WithLabelValues("private").Add(float64(st.SkippedPrivate))
		e.metrics.DefinitionsSkipped.WithLabelValues("argument").Add(float64(st.SkippedArgument))
		e.metrics.DefinitionsSkipped.WithLabelValues("empty").Add(float64(st.SkippedEmpty))
		e.metrics.TermsIndexed.Set(float64(b.idx.Len()))
		e.metrics.ScopeEntries.Set(float64(b.idx.EntryCount()))
	}
	return nil
}

func (e *Engine) link(ctx context.Context, b *build) error {
	b.links = linker.Link(b.idx, b.crawl.Results)
	if e.metrics != nil {
		e.metrics.ReferencesLinked.Add(float64(b.links.Linked))
	}
	return nil
}

func (e *Engine) aggregate(ctx context.Context, b *build) error {
	b.related = related.Aggregate(b.idx, b.resolver)
	b.letters = termindex.BuildLetters(b.idx)
	b.top = stats.TopTerms(b.idx, e.cfg.Output.TopTerms)
	if e.metrics != nil {
		e.metrics.RelatedLinks.Add(float64(b.related.Added))
	}
	return nil
}

func (e *Engine) render(ctx context.Context, b *build) error {
	pages, err := render.New(b.idx, b.resolver, e.cfg.Output).Pages(b.letters, b.top)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrOutput, "render", err)
	}
	b.pages = pages
	return nil
}

func (e *Engine) write(ctx context.Context, b *build) error {
	writer := render.NewWriter(e.cfg.Output.Dir)
	for _, p := range b.pages {
		if err := ctx.Err(); err != nil {
			return apperrors.Wrap(apperrors.ErrCanceled, PhaseWrite, err)
		}
		path, err := writer.Write(p)
		if err != nil {
			return err
		}
		b.written++
		if e.metrics != nil {
			e.metrics.PagesWritten.Inc()
		}
		e.logger.Debug("page written", "path", path)
	}
	e.logger.Info("pages written", "pages", b.written, "dir", e.cfg.Output.Dir)
	return nil
}

func (e *Engine) recordResolutions(st scope.Stats) {
	if e.metrics == nil {
		return
	}
	for _, o := range scope.Outcomes {
		e.metrics.ScopeResolutions.WithLabelValues(string(o)).Add(float64(st.ByOutcome(o)))
	}
}
