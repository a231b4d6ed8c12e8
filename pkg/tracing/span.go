// Package tracing times a build as a tree of spans carried through
// contexts. A build opens one root span and a child span per phase; the
// tree can be logged through slog once the build ends.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type spanKey struct{}

// Span is one timed step of a build. Attributes keep insertion order and a
// repeated key overwrites the earlier value in place.
type Span struct {
	Name      string
	TraceID   string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	mu       sync.Mutex
	parent   *Span
	children []*Span
	attrs    []slog.Attr
}

func newSpan(name, traceID string, parent *Span) *Span {
	return &Span{Name: name, TraceID: traceID, StartTime: time.Now(), parent: parent}
}

// StartSpan opens a root span for traceID and returns a context carrying it.
func StartSpan(ctx context.Context, name string, traceID string) (context.Context, *Span) {
	span := newSpan(name, traceID, nil)
	return context.WithValue(ctx, spanKey{}, span), span
}

// StartChildSpan opens a span under the one in ctx. Without a parent the
// span is detached and has no trace id.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	parent := SpanFromContext(ctx)
	if parent == nil {
		child := newSpan(name, "", nil)
		return context.WithValue(ctx, spanKey{}, child), child
	}
	child := newSpan(name, parent.TraceID, parent)
	parent.mu.Lock()
	parent.children = append(parent.children, child)
	parent.mu.Unlock()
	return context.WithValue(ctx, spanKey{}, child), child
}

// SpanFromContext returns the span carried by ctx, or nil.
func SpanFromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(spanKey{}).(*Span)
	return span
}

func (s *Span) End() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.attrs {
		if s.attrs[i].Key == key {
			s.attrs[i].Value = slog.AnyValue(value)
			return
		}
	}
	s.attrs = append(s.attrs, slog.Any(key, value))
}

// Attr returns the value stored under key.
func (s *Span) Attr(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attrs {
		if a.Key == key {
			return a.Value.Any(), true
		}
	}
	return nil, false
}

// Children returns a copy of the direct children in start order.
func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Span(nil), s.children...)
}

// Path is the slash-joined chain of span names from the root.
func (s *Span) Path() string {
	if s.parent == nil {
		return s.Name
	}
	return s.parent.Path() + "/" + s.Name
}

// ChildDurations returns the duration in milliseconds of every direct child,
// keyed by name. Children with the same name are summed.
func (s *Span) ChildDurations() map[string]int64 {
	out := make(map[string]int64)
	for _, c := range s.Children() {
		out[c.Name] += c.Duration.Milliseconds()
	}
	return out
}

// Log writes one record per span, depth first, to the default logger.
func (s *Span) Log() {
	s.LogTo(slog.Default())
}

func (s *Span) LogTo(logger *slog.Logger) {
	s.mu.Lock()
	attrs := make([]any, 0, len(s.attrs))
	for _, a := range s.attrs {
		attrs = append(attrs, a)
	}
	s.mu.Unlock()

	logger.Info("span",
		"trace_id", s.TraceID,
		"span", s.Path(),
		"duration_ms", s.Duration.Milliseconds(),
		slog.Group("attrs", attrs...),
	)
	for _, c := range s.Children() {
		c.LogTo(logger)
	}
}
