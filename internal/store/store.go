// Package store persists finished sessions to Postgres. Writes happen once
// per session at teardown; flushes are idempotent so a crashed teardown can
// be replayed safely.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lurelab/lure/internal/engine"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the three session tables if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id            TEXT PRIMARY KEY,
			scam_type     TEXT NOT NULL,
			confidence    DOUBLE PRECISION NOT NULL,
			final_phase   TEXT NOT NULL,
			started_at    TIMESTAMPTZ NOT NULL,
			ended_at      TIMESTAMPTZ NOT NULL,
			message_count INT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS session_messages (
			session_id TEXT NOT NULL REFERENCES sessions(id),
			ordinal    INT NOT NULL,
			sender     TEXT NOT NULL,
			text       TEXT NOT NULL,
			sent_at    TIMESTAMPTZ,
			PRIMARY KEY (session_id, ordinal)
		);
		CREATE TABLE IF NOT EXISTS session_intelligence (
			id         UUID PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			type       TEXT NOT NULL,
			value      TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			context    TEXT,
			UNIQUE (session_id, type, value)
		);`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// FlushSession writes a finished session across the three tables in one
// transaction. Replaying the same snapshot is a no-op for messages and
// intelligence; the session row takes the latest values.
func (s *Store) FlushSession(ctx context.Context, snap engine.Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO sessions (id, scam_type, confidence, final_phase, started_at, ended_at, message_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			scam_type = EXCLUDED.scam_type,
			confidence = EXCLUDED.confidence,
			final_phase = EXCLUDED.final_phase,
			ended_at = EXCLUDED.ended_at,
			message_count = EXCLUDED.message_count`,
		snap.SessionID, snap.ScamType, snap.Confidence, snap.Phase,
		snap.StartedAt, snap.EndedAt, len(snap.Messages),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	for i, m := range snap.Messages {
		_, err = tx.Exec(ctx, `
			INSERT INTO session_messages (session_id, ordinal, sender, text, sent_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (session_id, ordinal) DO NOTHING`,
			snap.SessionID, i, m.Sender, m.Text, m.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert message %d: %w", i, err)
		}
	}

	for _, item := range snap.Intelligence {
		id := item.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO session_intelligence (id, session_id, type, value, confidence, context)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT DO NOTHING`,
			id, snap.SessionID, item.Type, item.Value, item.Confidence, item.Context,
		)
		if err != nil {
			return fmt.Errorf("insert intelligence: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Stats summarizes what has been archived, for the status endpoint.
type Stats struct {
	Sessions      int     `json:"sessions"`
	ScamSessions  int     `json:"scamSessions"`
	Artifacts     int     `json:"artifacts"`
	AvgConfidence float64 `json:"avgConfidence"`
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE scam_type <> 'unknown'),
			COALESCE(avg(confidence), 0),
			(SELECT count(*) FROM session_intelligence)
		FROM sessions`).Scan(&st.Sessions, &st.ScamSessions, &st.AvgConfidence, &st.Artifacts)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return st, nil
}
