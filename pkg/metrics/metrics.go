// Package metrics defines the Prometheus collectors of a WebDex build and
// exposes them for scraping or as a node_exporter textfile.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for a build.
type Metrics struct {
	SpecsLoaded        prometheus.Counter
	DefinitionsIndexed prometheus.Counter
	DefinitionsSkipped *prometheus.CounterVec
	TermsIndexed       prometheus.Gauge
	ScopeEntries       prometheus.Gauge
	ReferencesLinked   prometheus.Counter
	RelatedLinks       prometheus.Counter
	ScopeResolutions   *prometheus.CounterVec
	PagesWritten       prometheus.Counter
	PhaseDuration      *prometheus.HistogramVec
	SinkPublishes      *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates all collectors and registers them on a fresh registry, which
// also carries the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		SpecsLoaded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "webdex_specs_loaded_total",
				Help: "Specifications read from the crawl.",
			},
		),
		DefinitionsIndexed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "webdex_definitions_indexed_total",
				Help: "Definitions added to the term index.",
			},
		),
		DefinitionsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webdex_definitions_skipped_total",
				Help: "Definitions left out of the index by reason (private, argument, empty).",
			},
			[]string{"reason"},
		),
		TermsIndexed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "webdex_terms",
				Help: "Distinct normalized terms in the index.",
			},
		),
		ScopeEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "webdex_scope_entries",
				Help: "Entries (term meanings) in the index.",
			},
		),
		ReferencesLinked: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "webdex_references_linked_total",
				Help: "Outbound links that hit an indexed definition.",
			},
		),
		RelatedLinks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "webdex_related_links_total",
				Help: "Back references added from scope entries to their members.",
			},
		),
		ScopeResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webdex_scope_resolutions_total",
				Help: "Scope resolutions by outcome (resolved, unrecognized, unmatched, ambiguous).",
			},
			[]string{"outcome"},
		),
		PagesWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "webdex_pages_written_total",
				Help: "Pages written to the output directory.",
			},
		),
		PhaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webdex_phase_duration_seconds",
				Help:    "Wall time of each build phase in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"phase"},
		),
		SinkPublishes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webdex_sink_publishes_total",
				Help: "Publish attempts per sink by status (success, error).",
			},
			[]string{"sink", "status"},
		),
		registry: reg,
	}

	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.SpecsLoaded,
		m.DefinitionsIndexed,
		m.DefinitionsSkipped,
		m.TermsIndexed,
		m.ScopeEntries,
		m.ReferencesLinked,
		m.RelatedLinks,
		m.ScopeResolutions,
		m.PagesWritten,
		m.PhaseDuration,
		m.SinkPublishes,
	)

	return m
}

// ObservePhase records how long a phase took.
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	m.PhaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape HTTP handler for m.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current values in the text exposition format,
// for collection by node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
