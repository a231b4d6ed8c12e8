package publish

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/redis"
)

// Open connects every sink switched on in cfg. A sink that cannot connect is
// logged and left out. The returned function closes the open connections.
func Open(ctx context.Context, cfg *config.Config) ([]Sink, func()) {
	logger := slog.Default().With("component", "publisher")
	var sinks []Sink
	var closers []func() error

	if cfg.Publish.Redis {
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.Error("redis sink unavailable", "addr", cfg.Redis.Addr, "error", err)
		} else {
			sinks = append(sinks, NewRedisExporter(client, cfg.Redis))
			closers = append(closers, client.Close)
		}
	}
	if cfg.Publish.Postgres {
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			logger.Error("postgres sink unavailable", "host", cfg.Postgres.Host, "error", err)
		} else {
			sinks = append(sinks, NewSnapshotStore(client))
			closers = append(closers, client.Close)
		}
	}
	if cfg.Publish.Kafka {
		producer := kafka.NewProducer(cfg.Kafka)
		sinks = append(sinks, NewNotifier(producer))
		closers = append(closers, producer.Close)
	}

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("closing sink", "error", err)
			}
		}
	}
	return sinks, closeAll
}

// Pinger is implemented by sinks that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterHealth adds a readiness check for every sink that can be pinged.
func RegisterHealth(checker *health.Checker, sinks []Sink) {
	for _, sink := range sinks {
		if p, ok := sink.(Pinger); ok {
			checker.Register("sink:"+sink.Name(), health.PingCheck(p.Ping))
		}
	}
}
