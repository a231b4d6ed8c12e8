package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/webdex/internal/render"
	"github.com/Adithya-Monish-Kumar-K/webdex/internal/termindex"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/resilience"
)

// hashStore is the part of the Redis client the exporter needs.
type hashStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	WriteHashes(ctx context.Context, hashes map[string]map[string]string, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
	Ping(ctx context.Context) error
}

// RedisExporter stores, for every term, a hash from entry id to the page
// link of the entry, so other tools can look terms up without parsing the
// site. The build summary is stored alongside.
type RedisExporter struct {
	store  hashStore
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisExporter(client *redis.Client, cfg config.RedisConfig) *RedisExporter {
	return newRedisExporter(client, cfg)
}

func newRedisExporter(store hashStore, cfg config.RedisConfig) *RedisExporter {
	return &RedisExporter{
		store:  store,
		prefix: cfg.KeyPrefix,
		ttl:    cfg.TTL,
		logger: slog.Default().With("component", "redis-exporter"),
	}
}

func (e *RedisExporter) Name() string { return "redis" }

func (e *RedisExporter) Ping(ctx context.Context) error {
	return e.store.Ping(ctx)
}

// TermKey is the hash key of term.
func TermKey(prefix, term string) string {
	return prefix + "term:" + term
}

// BuildKey is the key holding the latest build summary.
func BuildKey(prefix string) string {
	return prefix + "build"
}

// TermHashes returns the hash of every term: entry id to page link.
func TermHashes(idx *termindex.Index, prefix string) map[string]map[string]string {
	hashes := make(map[string]map[string]string, idx.Len())
	idx.Walk(func(entry *termindex.Entry) {
		key := TermKey(prefix, entry.Term)
		fields, ok := hashes[key]
		if !ok {
			fields = make(map[string]string)
			hashes[key] = fields
		}
		fields[entry.ID] = render.LinkTo(idx, entry.Target())
	})
	return hashes
}

func (e *RedisExporter) Publish(ctx context.Context, snap Snapshot) error {
	summary, err := json.Marshal(snap.Summary)
	if err != nil {
		return resilience.Permanent(fmt.Errorf("marshaling build summary: %w", err))
	}

	previous, err := e.store.Get(ctx, BuildKey(e.prefix))
	switch {
	case err == nil:
		var prev struct {
			BuildID string `json:"build_id"`
		}
		if json.Unmarshal([]byte(previous), &prev) == nil {
			e.logger.Info("replacing previous export", "previous_build_id", prev.BuildID)
		}
	case !redis.IsNilError(err):
		return fmt.Errorf("reading previous build: %w", err)
	}

	removed, err := e.store.FlushByPattern(ctx, TermKey(e.prefix, "*"))
	if err != nil {
		return fmt.Errorf("removing previous term keys: %w", err)
	}
	hashes := TermHashes(snap.Index, e.prefix)
	if err := e.store.WriteHashes(ctx, hashes, e.ttl); err != nil {
		return err
	}
	if err := e.store.Set(ctx, BuildKey(e.prefix), summary, e.ttl); err != nil {
		return fmt.Errorf("storing build summary: %w", err)
	}
	e.logger.Info("terms exported",
		"terms", len(hashes),
		"removed", removed,
		"build_id", snap.Summary.BuildID,
	)
	return nil
}
