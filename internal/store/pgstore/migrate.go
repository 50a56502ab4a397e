package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS mastery_records (
		learner_id           TEXT NOT NULL,
		question_id          TEXT NOT NULL,
		topic_id             TEXT NOT NULL DEFAULT '',
		attempts             INTEGER NOT NULL DEFAULT 0,
		correct_attempts     INTEGER NOT NULL DEFAULT 0,
		incorrect_attempts   INTEGER NOT NULL DEFAULT 0,
		correct_streak       INTEGER NOT NULL DEFAULT 0,
		confidence           DOUBLE PRECISION NOT NULL DEFAULT 0,
		level                TEXT NOT NULL,
		easiness_factor      DOUBLE PRECISION NOT NULL,
		interval_days        INTEGER NOT NULL,
		review_count         INTEGER NOT NULL DEFAULT 0,
		last_attempt_at      TIMESTAMPTZ,
		next_review_at       TIMESTAMPTZ,
		avg_response_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_time_seconds   DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (learner_id, question_id)
	)`,
	`CREATE INDEX IF NOT EXISTS mastery_records_learner_topic ON mastery_records (learner_id, topic_id)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id             TEXT PRIMARY KEY,
		learner_id     TEXT NOT NULL,
		kind           TEXT NOT NULL,
		topic_id       TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL,
		planned        TEXT[] NOT NULL,
		answers        JSONB NOT NULL DEFAULT '{}',
		answered_count INTEGER NOT NULL DEFAULT 0,
		correct_count  INTEGER NOT NULL DEFAULT 0,
		time_limit_ms  BIGINT NOT NULL DEFAULT 0,
		time_spent_ms  BIGINT NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ NOT NULL,
		started_at     TIMESTAMPTZ,
		resumed_at     TIMESTAMPTZ,
		ended_at       TIMESTAMPTZ,
		result         JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_learner_status ON sessions (learner_id, status)`,
	// At most one non-terminal session per learner, across processes.
	`CREATE UNIQUE INDEX IF NOT EXISTS sessions_one_active
		ON sessions (learner_id) WHERE status IN ('not_started', 'in_progress', 'paused')`,
	`CREATE TABLE IF NOT EXISTS profiles (
		learner_id   TEXT PRIMARY KEY,
		total_points INTEGER NOT NULL DEFAULT 0,
		level        INTEGER NOT NULL DEFAULT 1,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id         TEXT PRIMARY KEY,
		topic_id   TEXT NOT NULL,
		difficulty SMALLINT NOT NULL CHECK (difficulty BETWEEN 1 AND 4)
	)`,
	`CREATE INDEX IF NOT EXISTS questions_topic_difficulty ON questions (topic_id, difficulty)`,
	`CREATE TABLE IF NOT EXISTS answer_events (
		sequence     BIGSERIAL PRIMARY KEY,
		session_id   TEXT NOT NULL,
		learner_id   TEXT NOT NULL,
		question_id  TEXT NOT NULL,
		kind         TEXT NOT NULL,
		correct      BOOLEAN NOT NULL,
		first_answer BOOLEAN NOT NULL,
		response_ms  BIGINT NOT NULL,
		answered_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS answer_events_learner ON answer_events (learner_id, sequence)`,
}

// Migrate creates the schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
