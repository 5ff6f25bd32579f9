// Package audit records one metadata row per analyze call. User text and
// model output are never stored.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Event is one recorded analyze call.
type Event struct {
	ID                    string
	Outcome               string
	Mode                  string
	ErrorKind             string
	Verdict               string
	Score                 *int
	ConfidenceSynthesized bool
	BandingMismatch       bool
	FileSubmitted         bool
	HistoryLen            int
	TextLen               int
	PromptVersion         string
	Provider              string
	Latency               time.Duration
	CreatedAt             time.Time
}

// OutcomeCount is an aggregate row returned by Summary.
type OutcomeCount struct {
	Outcome string
	Count   int64
}

type db interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store writes analysis events to Postgres.
type Store struct {
	db  db
	now func() time.Time
}

func NewStore(pool db) *Store {
	if pool == nil {
		panic("audit: db cannot be nil")
	}
	return &Store{db: pool, now: time.Now}
}

const insertEventSQL = `
INSERT INTO analysis_events (
	id, outcome, mode, error_kind, verdict, score,
	confidence_synthesized, banding_mismatch, file_submitted,
	history_len, text_len, prompt_version, provider, latency_ms, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

// Record inserts ev, assigning an ID and timestamp when missing.
func (s *Store) Record(ctx context.Context, ev Event) error {
	if ev.Outcome == "" {
		return errors.New("audit: outcome is required")
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now().UTC()
	}

	_, err := s.db.Exec(ctx, insertEventSQL,
		ev.ID, ev.Outcome, ev.Mode, ev.ErrorKind, ev.Verdict, ev.Score,
		ev.ConfidenceSynthesized, ev.BandingMismatch, ev.FileSubmitted,
		ev.HistoryLen, ev.TextLen, ev.PromptVersion, ev.Provider, ev.Latency.Milliseconds(), ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert analysis event: %w", err)
	}
	return nil
}

const summarySQL = `
SELECT outcome, COUNT(*)
FROM analysis_events
WHERE created_at >= $1
GROUP BY outcome
ORDER BY outcome`

// Summary counts events per outcome since the given time.
func (s *Store) Summary(ctx context.Context, since time.Time) ([]OutcomeCount, error) {
	rows, err := s.db.Query(ctx, summarySQL, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("audit: query summary: %w", err)
	}
	defer rows.Close()

	var out []OutcomeCount
	for rows.Next() {
		var c OutcomeCount
		if err := rows.Scan(&c.Outcome, &c.Count); err != nil {
			return nil, fmt.Errorf("audit: scan summary: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: read summary: %w", err)
	}
	return out, nil
}
