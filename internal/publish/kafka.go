package publish

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/webdex/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/kafka"
)

// BuildCompleted is the event announcing a finished build.
type BuildCompleted struct {
	BuildID    string            `json:"build_id"`
	Specs      int               `json:"specs"`
	Terms      int               `json:"terms"`
	Entries    int               `json:"entries"`
	Pages      int               `json:"pages"`
	TopTerms   []stats.TermCount `json:"top_terms"`
	FinishedAt time.Time         `json:"finished_at"`
}

// NewBuildCompleted builds the event for summary.
func NewBuildCompleted(summary stats.Summary) BuildCompleted {
	return BuildCompleted{
		BuildID:    summary.BuildID,
		Specs:      summary.Index.Specs,
		Terms:      summary.Terms,
		Entries:    summary.Entries,
		Pages:      summary.Pages,
		TopTerms:   summary.TopTerms,
		FinishedAt: summary.FinishedAt,
	}
}

type eventPublisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Notifier sends a BuildCompleted event keyed by build id.
type Notifier struct {
	producer eventPublisher
}

func NewNotifier(producer *kafka.Producer) *Notifier {
	return &Notifier{producer: producer}
}

func (n *Notifier) Name() string { return "kafka" }

func (n *Notifier) Publish(ctx context.Context, snap Snapshot) error {
	return n.producer.Publish(ctx, kafka.Event{
		Key:   snap.Summary.BuildID,
		Value: NewBuildCompleted(snap.Summary),
	})
}
