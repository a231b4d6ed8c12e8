// Package publish hands a finished build to optional downstream sinks: a
// Redis term lookup export, PostgreSQL build snapshots and a Kafka
// build-completed event. Sink failures are logged and counted; they never
// fail the build.
package publish

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/webdex/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/termindex"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/webdex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/resilience"
)

// Snapshot is what a sink receives once every page is written.
type Snapshot struct {
	Summary stats.Summary
	Index   *termindex.Index
}

// Sink is one downstream consumer of a build.
type Sink interface {
	Name() string
	Publish(ctx context.Context, snap Snapshot) error
}

// Result is the outcome of publishing to one sink.
type Result struct {
	Sink     string
	Err      error
	Duration time.Duration
}

// Publisher fans a snapshot out to every sink in turn.
type Publisher struct {
	sinks   []Sink
	retry   resilience.RetryConfig
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewPublisher creates a Publisher. m may be nil.
func NewPublisher(sinks []Sink, cfg config.PublishConfig, m *metrics.Metrics) *Publisher {
	return &Publisher{
		sinks:   sinks,
		retry:   resilience.FromConfig(cfg.Retry),
		timeout: cfg.Timeout,
		metrics: m,
		logger:  slog.Default().With("component", "publisher"),
	}
}

// Publish delivers snap to every sink, retrying transient failures, and
// reports one Result per sink in sink order.
func (p *Publisher) Publish(ctx context.Context, snap Snapshot) []Result {
	results := make([]Result, 0, len(p.sinks))
	for _, sink := range p.sinks {
		start := time.Now()
		err := p.publishOne(ctx, sink, snap)
		res := Result{Sink: sink.Name(), Err: err, Duration: time.Since(start)}
		results = append(results, res)

		status := "success"
		if err != nil {
			status = "error"
			p.logger.Error("publish failed",
				"sink", res.Sink,
				"build_id", snap.Summary.BuildID,
				"error", err,
			)
		} else {
			p.logger.Info("build published",
				"sink", res.Sink,
				"build_id", snap.Summary.BuildID,
				"duration_ms", res.Duration.Milliseconds(),
			)
		}
		if p.metrics != nil {
			p.metrics.SinkPublishes.WithLabelValues(res.Sink, status).Inc()
		}
	}
	return results
}

func (p *Publisher) publishOne(ctx context.Context, sink Sink, snap Snapshot) error {
	op := "publish " + sink.Name()
	err := resilience.WithTimeout(ctx, p.timeout, op, func(ctx context.Context) error {
		return resilience.Retry(ctx, op, p.retry, func() error {
			return sink.Publish(ctx, snap)
		})
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrSinkUnavailable, sink.Name(), err)
	}
	return nil
}

// Failed counts the results that carry an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
