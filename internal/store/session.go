package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"

	"github.com/abhisek/lernapp/internal/apperr"
	"github.com/abhisek/lernapp/internal/session"
)

// activeStatuses are the statuses that block a new session.
var activeStatuses = []any{
	string(session.StatusNotStarted),
	string(session.StatusInProgress),
	string(session.StatusPaused),
}

// SessionRepo persists session aggregates.
type SessionRepo struct {
	db *sql.DB
}

// HasActive reports whether the learner has a non-terminal session.
func (r *SessionRepo) HasActive(ctx context.Context, learnerID string) (bool, error) {
	query, args := builder().Select(entsql.Count("*")).
		From(entsql.Table(tableSessions)).
		Where(entsql.And(
			entsql.EQ("learner_id", learnerID),
			entsql.In("status", activeStatuses...),
		)).
		Query()

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("count active sessions: %w", err)
	}
	return n > 0, nil
}

// Save inserts or replaces the session.
func (r *SessionRepo) Save(ctx context.Context, s *session.Session) error {
	row, err := encodeSession(s)
	if err != nil {
		return err
	}
	query, args := builder().Insert(tableSessions).
		Columns(columnNames(sessionColumns)...).
		Values(row...).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return apperr.Conflict("learner %s already has an active session", s.LearnerID)
		}
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the session or an apperr.ErrNotFound error.
func (r *SessionRepo) Load(ctx context.Context, id string) (*session.Session, error) {
	query, args := builder().Select(columnNames(sessionColumns)...).
		From(entsql.Table(tableSessions)).
		Where(entsql.EQ("id", id)).
		Query()

	s, err := scanSession(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("session %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return s, nil
}

// ListByLearner returns the learner's sessions, newest first.
func (r *SessionRepo) ListByLearner(ctx context.Context, learnerID string, limit int) ([]*session.Session, error) {
	sel := builder().Select(columnNames(sessionColumns)...).
		From(entsql.Table(tableSessions)).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy(entsql.Desc("created_at"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	return r.list(ctx, sel)
}

// Active returns the learner's non-terminal session, or nil.
func (r *SessionRepo) Active(ctx context.Context, learnerID string) (*session.Session, error) {
	sel := builder().Select(columnNames(sessionColumns)...).
		From(entsql.Table(tableSessions)).
		Where(entsql.And(
			entsql.EQ("learner_id", learnerID),
			entsql.In("status", activeStatuses...),
		)).
		Limit(1)
	sessions, err := r.list(ctx, sel)
	if err != nil || len(sessions) == 0 {
		return nil, err
	}
	return sessions[0], nil
}

// ListIdle returns non-terminal sessions whose last activity is before the
// given time.
func (r *SessionRepo) ListIdle(ctx context.Context, before time.Time) ([]*session.Session, error) {
	sel := builder().Select(columnNames(sessionColumns)...).
		From(entsql.Table(tableSessions)).
		Where(entsql.In("status", activeStatuses...)).
		OrderBy("created_at")
	active, err := r.list(ctx, sel)
	if err != nil {
		return nil, err
	}
	var idle []*session.Session
	for _, s := range active {
		if s.LastActivity().Before(before) {
			idle = append(idle, s)
		}
	}
	return idle, nil
}

func (r *SessionRepo) list(ctx context.Context, sel *entsql.Selector) ([]*session.Session, error) {
	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
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

func encodeSession(s *session.Session) ([]any, error) {
	planned, err := json.Marshal(s.Planned)
	if err != nil {
		return nil, fmt.Errorf("marshal planned questions: %w", err)
	}
	answersRaw, err := json.Marshal(s.Answers)
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}
	var result any
	if s.Result != nil {
		raw, err := json.Marshal(s.Result)
		if err != nil {
			return nil, fmt.Errorf("marshal result: %w", err)
		}
		result = string(raw)
	}

	return []any{
		s.ID, s.LearnerID, string(s.Kind), s.TopicID, string(s.Status),
		string(planned), string(answersRaw),
		s.AnsweredCount, s.CorrectCount,
		s.TimeLimit.Milliseconds(), s.TimeSpent.Milliseconds(),
		s.CreatedAt.UTC(), nullTime(s.StartedAt), nullTime(s.ResumedAt), nullTime(s.EndedAt),
		result,
	}, nil
}

func scanSession(row rowScanner) (*session.Session, error) {
	var (
		s                       session.Session
		kind, status            string
		planned, answers        string
		result                  sql.NullString
		limitMs, spentMs        int64
		started, resumed, ended sql.NullTime
	)
	err := row.Scan(
		&s.ID, &s.LearnerID, &kind, &s.TopicID, &status,
		&planned, &answers,
		&s.AnsweredCount, &s.CorrectCount,
		&limitMs, &spentMs,
		&s.CreatedAt, &started, &resumed, &ended,
		&result,
	)
	if err != nil {
		return nil, err
	}

	s.Kind = session.Kind(kind)
	if s.Status, err = session.ParseStatus(status); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(planned), &s.Planned); err != nil {
		return nil, fmt.Errorf("unmarshal planned questions: %w", err)
	}
	s.Answers = make(map[string]session.Answer)
	if err := json.Unmarshal([]byte(answers), &s.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	if result.Valid {
		s.Result = &session.Result{}
		if err := json.Unmarshal([]byte(result.String), s.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}

	s.TimeLimit = time.Duration(limitMs) * time.Millisecond
	s.TimeSpent = time.Duration(spentMs) * time.Millisecond
	s.CreatedAt = s.CreatedAt.UTC()
	s.StartedAt = timePtr(started)
	s.ResumedAt = timePtr(resumed)
	s.EndedAt = timePtr(ended)
	return &s, nil
}
