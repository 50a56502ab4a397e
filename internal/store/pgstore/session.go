package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhisek/lernapp/internal/apperr"
	"github.com/abhisek/lernapp/internal/session"
)

const sessionColumns = `id, learner_id, kind, topic_id, status, planned, answers,
	answered_count, correct_count, time_limit_ms, time_spent_ms,
	created_at, started_at, resumed_at, ended_at, result`

const activeFilter = `status IN ('not_started', 'in_progress', 'paused')`

// uniqueViolation is the PostgreSQL error code for unique_violation.
const uniqueViolation = "23505"

// SessionRepository persists sessions in PostgreSQL.
type SessionRepository struct {
	db *pgxpool.Pool
}

// HasActive reports whether the learner has a non-terminal session.
func (r *SessionRepository) HasActive(ctx context.Context, learnerID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sessions WHERE learner_id = $1 AND `+activeFilter+`)`,
		learnerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has active: %w", err)
	}
	return exists, nil
}

// Save creates or replaces the session. The one-active-session index turns
// a race between processes into ErrConflict.
func (r *SessionRepository) Save(ctx context.Context, s *session.Session) error {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	var result []byte
	if s.Result != nil {
		if result, err = json.Marshal(s.Result); err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
	}

	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id)
		DO UPDATE SET
			status = excluded.status,
			answers = excluded.answers,
			answered_count = excluded.answered_count,
			correct_count = excluded.correct_count,
			time_spent_ms = excluded.time_spent_ms,
			started_at = excluded.started_at,
			resumed_at = excluded.resumed_at,
			ended_at = excluded.ended_at,
			result = excluded.result
	`
	_, err = r.db.Exec(ctx, query,
		s.ID, s.LearnerID, string(s.Kind), s.TopicID, string(s.Status), s.Planned, answers,
		s.AnsweredCount, s.CorrectCount, s.TimeLimit.Milliseconds(), s.TimeSpent.Milliseconds(),
		s.CreatedAt, s.StartedAt, s.ResumedAt, s.EndedAt, result,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperr.Conflict("learner %s already has an active session", s.LearnerID)
	}
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the session or an apperr.ErrNotFound error.
func (r *SessionRepository) Load(ctx context.Context, id string) (*session.Session, error) {
	s, err := scanSession(r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("session %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

// ListIdle returns non-terminal sessions whose last activity is before the
// given time.
func (r *SessionRepository) ListIdle(ctx context.Context, before time.Time) ([]*session.Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE ` + activeFilter + ` AND COALESCE(started_at, created_at) < $1
		ORDER BY created_at`
	return r.list(ctx, query, before)
}

// ListByLearner returns the learner's sessions, newest first.
func (r *SessionRepository) ListByLearner(ctx context.Context, learnerID string, limit int) ([]*session.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE learner_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	return r.list(ctx, query, learnerID, limit)
}

// Active returns the learner's non-terminal session, or nil.
func (r *SessionRepository) Active(ctx context.Context, learnerID string) (*session.Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE learner_id = $1 AND ` + activeFilter + `
		LIMIT 1`
	sessions, err := r.list(ctx, query, learnerID)
	if err != nil || len(sessions) == 0 {
		return nil, err
	}
	return sessions[0], nil
}

func (r *SessionRepository) list(ctx context.Context, query string, args ...any) ([]*session.Session, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []*session.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSession(row pgx.Row) (*session.Session, error) {
	var (
		s                session.Session
		kind, status     string
		answers, result  []byte
		limitMs, spentMs int64
	)
	err := row.Scan(
		&s.ID, &s.LearnerID, &kind, &s.TopicID, &status, &s.Planned, &answers,
		&s.AnsweredCount, &s.CorrectCount, &limitMs, &spentMs,
		&s.CreatedAt, &s.StartedAt, &s.ResumedAt, &s.EndedAt, &result,
	)
	if err != nil {
		return nil, err
	}

	s.Kind = session.Kind(kind)
	if s.Status, err = session.ParseStatus(status); err != nil {
		return nil, err
	}
	s.Answers = make(map[string]session.Answer)
	if err := json.Unmarshal(answers, &s.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	if result != nil {
		s.Result = &session.Result{}
		if err := json.Unmarshal(result, s.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	s.TimeLimit = time.Duration(limitMs) * time.Millisecond
	s.TimeSpent = time.Duration(spentMs) * time.Millisecond
	return &s, nil
}
