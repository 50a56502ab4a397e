package pgstore

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhisek/lernapp/internal/session"
)

// AnswerLogRepository appends answer events. The BIGSERIAL key gives the
// log its global order.
type AnswerLogRepository struct {
	db *pgxpool.Pool
}

// AppendAnswer records one answer event.
func (r *AnswerLogRepository) AppendAnswer(ctx context.Context, e session.AnswerEvent) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO answer_events
			(session_id, learner_id, question_id, kind, correct, first_answer, response_ms, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.SessionID, e.LearnerID, e.QuestionID, string(e.Kind),
		e.Correct, e.First, e.ResponseTime.Milliseconds(), e.AnsweredAt)
	if err != nil {
		return fmt.Errorf("append answer: %w", err)
	}
	return nil
}

// History returns the learner's latest answers, oldest first. An empty
// sessionID matches every session; limit <= 0 returns all.
func (r *AnswerLogRepository) History(ctx context.Context, learnerID, sessionID string, limit int) ([]session.AnswerEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT session_id, learner_id, question_id, kind, correct, first_answer, response_ms, answered_at
		FROM answer_events
		WHERE learner_id = $1 AND ($2 = '' OR session_id = $2)
		ORDER BY sequence DESC
		LIMIT NULLIF($3, 0)
	`, learnerID, sessionID, max(limit, 0))
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	var out []session.AnswerEvent
	for rows.Next() {
		var (
			e    session.AnswerEvent
			kind string
			ms   int64
		)
		err := rows.Scan(&e.SessionID, &e.LearnerID, &e.QuestionID, &kind,
			&e.Correct, &e.First, &ms, &e.AnsweredAt)
		if err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		e.Kind = session.Kind(kind)
		e.ResponseTime = time.Duration(ms) * time.Millisecond
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	slices.Reverse(out)
	return out, nil
}
