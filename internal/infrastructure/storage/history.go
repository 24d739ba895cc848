package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"robopress/internal/domain"
	"robopress/internal/ports"
)

const runsSchema = `CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TIMESTAMP NOT NULL,
	date_key TEXT NOT NULL,
	sort_id TEXT NOT NULL,
	sort_name TEXT NOT NULL,
	article_source TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	error TEXT NOT NULL
)`

// HistoryStore keeps an append-only record of refresh attempts in an
// embedded sqlite database. It is operability plumbing: failures here are
// logged by the caller and never fail a refresh.
type HistoryStore struct {
	db *sql.DB
}

var _ ports.RunRecorder = (*HistoryStore)(nil)

// NewHistoryStore opens (and if needed initializes) the runs database.
func NewHistoryStore(path string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	if _, err := db.Exec(runsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}

	return &HistoryStore{db: db}, nil
}

// RecordRun inserts one run row.
func (h *HistoryStore) RecordRun(ctx context.Context, rec domain.RunRecord) error {
	_, err := sq.Insert("runs").
		Columns("id", "started_at", "date_key", "sort_id", "sort_name", "article_source", "duration_ms", "error").
		Values(rec.ID, rec.StartedAt.UTC(), rec.DateKey, rec.SortID, rec.SortName, rec.ArticleSource, rec.Duration.Milliseconds(), rec.Err).
		RunWith(h.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecentRuns returns up to n runs, newest first.
func (h *HistoryStore) RecentRuns(ctx context.Context, n int) ([]domain.RunRecord, error) {
	rows, err := sq.Select("id", "started_at", "date_key", "sort_id", "sort_name", "article_source", "duration_ms", "error").
		From("runs").
		OrderBy("started_at DESC").
		Limit(uint64(n)).
		RunWith(h.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []domain.RunRecord
	for rows.Next() {
		var rec domain.RunRecord
		var startedAt time.Time
		var durationMS int64
		if err := rows.Scan(&rec.ID, &startedAt, &rec.DateKey, &rec.SortID, &rec.SortName, &rec.ArticleSource, &durationMS, &rec.Err); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.StartedAt = startedAt
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return records, nil
}

// Close releases the database handle.
func (h *HistoryStore) Close() error {
	return h.db.Close()
}
