package publish

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/webdex/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/resilience"
)

const schema = `CREATE TABLE IF NOT EXISTS webdex_builds (
	build_id  TEXT PRIMARY KEY,
	data      JSONB NOT NULL,
	built_at  TIMESTAMPTZ NOT NULL
)`

const latestSnapshotQuery = `SELECT data FROM webdex_builds ORDER BY built_at DESC LIMIT 1`

const insertSnapshot = `INSERT INTO webdex_builds (build_id, data, built_at) VALUES ($1, $2, $3)`

// SnapshotStore keeps one row per build and logs how the most common terms
// moved since the previous build.
type SnapshotStore struct {
	client *postgres.Client
	logger *slog.Logger
}

func NewSnapshotStore(client *postgres.Client) *SnapshotStore {
	return &SnapshotStore{
		client: client,
		logger: slog.Default().With("component", "snapshot-store"),
	}
}

func (s *SnapshotStore) Name() string { return "postgres" }

func (s *SnapshotStore) Ping(ctx context.Context) error {
	return s.client.DB.PingContext(ctx)
}

// Migrate creates the snapshot table when it does not exist yet.
func (s *SnapshotStore) Migrate(ctx context.Context) error {
	if _, err := s.client.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating webdex_builds: %w", err)
	}
	return nil
}

// LatestSnapshot returns the summary of the most recent stored build, or
// nil when there is none.
func (s *SnapshotStore) LatestSnapshot(ctx context.Context) (*stats.Summary, error) {
	return latestSnapshot(ctx, rowsOf(s.client.DB))
}

type rowScanner interface {
	Scan(dest ...any) error
}

// queryer runs a single-row query.
type queryer interface {
	QueryRow(ctx context.Context, query string, args ...any) rowScanner
}

// sqlQueryer is satisfied by *sql.DB and *sql.Tx.
type sqlQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqlRows struct {
	q sqlQueryer
}

func (r sqlRows) QueryRow(ctx context.Context, query string, args ...any) rowScanner {
	return r.q.QueryRowContext(ctx, query, args...)
}

func rowsOf(q sqlQueryer) queryer {
	return sqlRows{q: q}
}

func latestSnapshot(ctx context.Context, q queryer) (*stats.Summary, error) {
	var data []byte
	err := q.QueryRow(ctx, latestSnapshotQuery).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest snapshot: %w", err)
	}
	var summary stats.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("decoding latest snapshot: %w", err)
	}
	return &summary, nil
}

func (s *SnapshotStore) Publish(ctx context.Context, snap Snapshot) error {
	if err := s.Migrate(ctx); err != nil {
		return err
	}
	data, err := json.Marshal(snap.Summary)
	if err != nil {
		return resilience.Permanent(fmt.Errorf("marshaling build summary: %w", err))
	}
	return s.client.InTx(ctx, func(tx *sql.Tx) error {
		previous, err := latestSnapshot(ctx, rowsOf(tx))
		if err != nil {
			return err
		}
		if previous != nil {
			s.logDelta(*previous, snap.Summary)
		}
		if _, err := tx.ExecContext(ctx, insertSnapshot, snap.Summary.BuildID, data, snap.Summary.FinishedAt); err != nil {
			return fmt.Errorf("inserting snapshot %s: %w", snap.Summary.BuildID, err)
		}
		return nil
	})
}

func (s *SnapshotStore) logDelta(previous, current stats.Summary) {
	s.logger.Info("build compared with previous",
		"previous_build_id", previous.BuildID,
		"terms_delta", current.Terms-previous.Terms,
		"entries_delta", current.Entries-previous.Entries,
	)
	for term, d := range stats.TermDelta(previous.TopTerms, current.TopTerms) {
		s.logger.Debug("top term moved", "term", term, "delta", d)
	}
}
